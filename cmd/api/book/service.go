package book

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

type ServiceAPI interface {
	SaveBook(ctx context.Context, req CreateBookRequest, actor Actor) (int64, error)
	GetBook(ctx context.Context, id int64) (Book, error)
	ListDisplayableBooks(ctx context.Context, page, size int, actor Actor) (Page[Book], error)
	ListBooksByOwner(ctx context.Context, page, size int, actor Actor) (Page[Book], error)
	ListBorrowedBooks(ctx context.Context, page, size int, actor Actor) (Page[BorrowedBook], error)
	ListReturnedBooks(ctx context.Context, page, size int, actor Actor) (Page[BorrowedBook], error)
	UpdateShareableStatus(ctx context.Context, bookID int64, actor Actor) (int64, error)
	UpdateArchivedStatus(ctx context.Context, bookID int64, actor Actor) (int64, error)
	BorrowBook(ctx context.Context, bookID int64, actor Actor) (int64, error)
	ReturnBorrowedBook(ctx context.Context, bookID int64, actor Actor) (int64, error)
	ApproveReturnBorrowedBook(ctx context.Context, bookID int64, actor Actor) (int64, error)
	UploadBookCover(ctx context.Context, bookID int64, actor Actor, r io.Reader, size int64, contentType string) error
	GetBookCover(ctx context.Context, bookID int64) (io.ReadCloser, error)
}

type Repository interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Repository, driver.Tx, error)

	CreateBook(ctx context.Context, b Book) (Book, error)
	GetBookByID(ctx context.Context, id int64) (Book, error)
	UpdateBook(ctx context.Context, b Book) (Book, error)
	ListBooks(ctx context.Context, filter BookFilter, page, pageSize int) ([]Book, error)
	ListBooksTotals(ctx context.Context, filter BookFilter) (int, error)
	AddBookRating(ctx context.Context, bookID int64, note float64) error

	CreateLoan(ctx context.Context, l Loan) (Loan, error)
	FindLoan(ctx context.Context, filter LoanFilter) (Loan, error)
	UpdateLoan(ctx context.Context, l Loan) (Loan, error)
	ListBorrowedBooks(ctx context.Context, filter LoanFilter, page, pageSize int) ([]BorrowedBook, error)
	ListBorrowedBooksTotals(ctx context.Context, filter LoanFilter) (int, error)

	CreateFeedback(ctx context.Context, f Feedback) (Feedback, error)
	ListFeedbacks(ctx context.Context, bookID int64, page, pageSize int) ([]Feedback, error)
	ListFeedbacksTotals(ctx context.Context, bookID int64) (int, error)
}

// FileStorage keeps the cover images; the book only records the returned reference.
type FileStorage interface {
	Store(ctx context.Context, ownerID int64, r io.Reader, size int64, contentType string) (string, error)
	Read(ctx context.Context, ref string) (io.ReadCloser, error)
}

type Notifier interface {
	LoanChanged(ctx context.Context, event LoanEvent) error
}

type Service struct {
	repo                 Repository
	storage              FileStorage
	notifier             Notifier
	notificationsTimeout time.Duration
	logger               *slog.Logger
}

func NewService(repo Repository, storage FileStorage, notifier Notifier, notificationsTimeout time.Duration) *Service {
	return &Service{
		repo:                 repo,
		storage:              storage,
		notifier:             notifier,
		notificationsTimeout: notificationsTimeout,
		logger:               slog.Default(),
	}
}

func (s *Service) WithLogger(logger *slog.Logger) *Service {
	s.logger = logger
	return s
}

func (s *Service) SaveBook(ctx context.Context, req CreateBookRequest, actor Actor) (int64, error) {
	err := req.Validate()
	if err != nil {
		return 0, err
	}

	created, err := s.repo.CreateBook(ctx, req.toBook(actor, timestamp()))
	if err != nil {
		return 0, repoErr("CreateBook", err)
	}
	return created.ID, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (Book, error) {
	b, err := s.repo.GetBookByID(ctx, id)
	if err != nil {
		return Book{}, repoErr("GetBookByID", err)
	}
	return b, nil
}

/* Books other users can borrow: shareable, not archived and not owned by the actor. Newest first. */
func (s *Service) ListDisplayableBooks(ctx context.Context, page, size int, actor Actor) (Page[Book], error) {
	filter := BookFilter{ExcludeOwnerID: actor.ID, Displayable: true}
	return s.listBooks(ctx, filter, page, size)
}

func (s *Service) ListBooksByOwner(ctx context.Context, page, size int, actor Actor) (Page[Book], error) {
	filter := BookFilter{OwnerID: actor.ID}
	return s.listBooks(ctx, filter, page, size)
}

func (s *Service) listBooks(ctx context.Context, filter BookFilter, page, size int) (Page[Book], error) {
	return fetchPage(page, size,
		func() (int, error) {
			total, err := s.repo.ListBooksTotals(ctx, filter)
			return total, repoErr("ListBooksTotals", err)
		},
		func() ([]Book, error) {
			books, err := s.repo.ListBooks(ctx, filter, page, size)
			return books, repoErr("ListBooks", err)
		})
}

func (s *Service) UpdateShareableStatus(ctx context.Context, bookID int64, actor Actor) (int64, error) {
	b, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return 0, repoErr("GetBookByID", err)
	}
	if b.OwnerID != actor.ID {
		return 0, ErrResponseNotOwnerShareable
	}

	b.Shareable = !b.Shareable
	b.UpdatedAt = timestamp()
	b.LastModifiedBy = actor.ID
	_, err = s.repo.UpdateBook(ctx, b)
	if err != nil {
		return 0, repoErr("UpdateBook", err)
	}
	return bookID, nil
}

func (s *Service) UpdateArchivedStatus(ctx context.Context, bookID int64, actor Actor) (int64, error) {
	b, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return 0, repoErr("GetBookByID", err)
	}
	if b.OwnerID != actor.ID {
		return 0, ErrResponseNotOwnerArchived
	}

	b.Archived = !b.Archived
	b.UpdatedAt = timestamp()
	b.LastModifiedBy = actor.ID
	_, err = s.repo.UpdateBook(ctx, b)
	if err != nil {
		return 0, repoErr("UpdateBook", err)
	}
	return bookID, nil
}

/* Hands the file to the storage and records the returned reference on the book. Owner only. */
func (s *Service) UploadBookCover(ctx context.Context, bookID int64, actor Actor, r io.Reader, size int64, contentType string) error {
	if r == nil || size <= 0 {
		return ErrResponseCoverInvalid
	}

	b, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return repoErr("GetBookByID", err)
	}
	if b.OwnerID != actor.ID {
		return ErrResponseNotOwnerCover
	}

	ref, err := s.storage.Store(ctx, actor.ID, r, size, contentType)
	if err != nil {
		return fmt.Errorf("storing book cover: %w", err)
	}

	b.Cover = ref
	b.UpdatedAt = timestamp()
	b.LastModifiedBy = actor.ID
	_, err = s.repo.UpdateBook(ctx, b)
	if err != nil {
		return repoErr("UpdateBook", err)
	}
	return nil
}

func (s *Service) GetBookCover(ctx context.Context, bookID int64) (io.ReadCloser, error) {
	b, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, repoErr("GetBookByID", err)
	}
	if b.Cover == "" {
		return nil, ErrResponseCoverNotFound
	}

	rc, err := s.storage.Read(ctx, b.Cover)
	if err != nil {
		return nil, fmt.Errorf("reading book cover: %w", err)
	}
	return rc, nil
}

/* Adds the name of the failing repository call, keeping domain errors and timeouts recognizable. */
func repoErr(call string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timeout on call to %s: %w", call, err)
	}
	var errR ErrResponse
	if errors.As(err, &errR) {
		return err
	}
	return fmt.Errorf("error from repository on %s: %w", call, err)
}
