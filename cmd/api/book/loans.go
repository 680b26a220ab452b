package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type LoanState string

const (
	LoanBorrowed LoanState = "borrowed"
	LoanReturned LoanState = "returned"
	LoanApproved LoanState = "approved"
)

// Loan is one borrow of one book by one user.
type Loan struct {
	ID             int64
	BookID         int64
	UserID         int64
	Returned       bool
	ReturnApproved bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CreatedBy      int64
	LastModifiedBy int64
}

func (l Loan) State() LoanState {
	switch {
	case l.ReturnApproved:
		return LoanApproved
	case l.Returned:
		return LoanReturned
	default:
		return LoanBorrowed
	}
}

// BorrowedBook is a loan joined with the book it refers to.
type BorrowedBook struct {
	LoanID         int64
	BookID         int64
	Title          string
	AuthorName     string
	ISBN           string
	Rate           float64
	Returned       bool
	ReturnApproved bool
	CreatedAt      time.Time
}

// LoanFilter selects loans. Zero ids and nil flags disable a criterion.
type LoanFilter struct {
	BookID     int64
	BorrowerID int64
	OwnerID    int64
	Returned   *bool
	Approved   *bool
}

/* Reports whether the loan, whose book is owned by ownerID, passes every criterion. */
func (f LoanFilter) Match(l Loan, ownerID int64) bool {
	if f.BookID != 0 && l.BookID != f.BookID {
		return false
	}
	if f.BorrowerID != 0 && l.UserID != f.BorrowerID {
		return false
	}
	if f.OwnerID != 0 && ownerID != f.OwnerID {
		return false
	}
	if f.Returned != nil && l.Returned != *f.Returned {
		return false
	}
	if f.Approved != nil && l.ReturnApproved != *f.Approved {
		return false
	}
	return true
}

type LoanEvent struct {
	State      LoanState
	LoanID     int64
	BookID     int64
	Title      string
	OwnerID    int64
	BorrowerID int64
}

func (s *Service) ListBorrowedBooks(ctx context.Context, page, size int, actor Actor) (Page[BorrowedBook], error) {
	return s.listBorrowed(ctx, LoanFilter{BorrowerID: actor.ID}, page, size)
}

/* Loans of the books the actor owns, which is where returns waiting for approval show up. */
func (s *Service) ListReturnedBooks(ctx context.Context, page, size int, actor Actor) (Page[BorrowedBook], error) {
	return s.listBorrowed(ctx, LoanFilter{OwnerID: actor.ID}, page, size)
}

func (s *Service) listBorrowed(ctx context.Context, filter LoanFilter, page, size int) (Page[BorrowedBook], error) {
	return fetchPage(page, size,
		func() (int, error) {
			total, err := s.repo.ListBorrowedBooksTotals(ctx, filter)
			return total, repoErr("ListBorrowedBooksTotals", err)
		},
		func() ([]BorrowedBook, error) {
			books, err := s.repo.ListBorrowedBooks(ctx, filter, page, size)
			return books, repoErr("ListBorrowedBooks", err)
		})
}

/*
Creates a loan of the book for the actor. The checks run in order: the book exists, it is
shareable and not archived, the actor is not the owner and holds no unreturned loan of it.
*/
func (s *Service) BorrowBook(ctx context.Context, bookID int64, actor Actor) (int64, error) {
	txRepo, tx, err := s.repo.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, fmt.Errorf("borrowing book: %w", err)
	}
	defer tx.Rollback()

	b, err := txRepo.GetBookByID(ctx, bookID)
	if err != nil {
		return 0, repoErr("GetBookByID", err)
	}
	if !b.Borrowable() {
		return 0, ErrResponseBookNotBorrowable
	}
	if b.OwnerID == actor.ID {
		return 0, ErrResponseCannotBorrowOwnBook
	}

	_, err = txRepo.FindLoan(ctx, LoanFilter{BookID: bookID, BorrowerID: actor.ID, Returned: toPointer(false)})
	if err == nil {
		return 0, ErrResponseBookAlreadyBorrowed
	}
	if !errors.Is(err, ErrResponseLoanNotFound) {
		return 0, repoErr("FindLoan", err)
	}

	now := timestamp()
	loan, err := txRepo.CreateLoan(ctx, Loan{
		BookID:         bookID,
		UserID:         actor.ID,
		Returned:       false,
		ReturnApproved: false,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      actor.ID,
		LastModifiedBy: actor.ID,
	})
	if err != nil {
		return 0, repoErr("CreateLoan", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("borrowing book, committing: %w", err)
	}

	s.notify(b, loan)
	return loan.ID, nil
}

func (s *Service) ReturnBorrowedBook(ctx context.Context, bookID int64, actor Actor) (int64, error) {
	txRepo, tx, err := s.repo.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("returning book: %w", err)
	}
	defer tx.Rollback()

	b, err := txRepo.GetBookByID(ctx, bookID)
	if err != nil {
		return 0, repoErr("GetBookByID", err)
	}
	if !b.Borrowable() {
		return 0, ErrResponseBookNotBorrowable
	}
	if b.OwnerID == actor.ID {
		return 0, ErrResponseCannotReturnOwnBook
	}

	loan, err := txRepo.FindLoan(ctx, LoanFilter{BookID: bookID, BorrowerID: actor.ID, Returned: toPointer(false), Approved: toPointer(false)})
	if errors.Is(err, ErrResponseLoanNotFound) {
		return 0, ErrResponseBookNotBorrowed
	}
	if err != nil {
		return 0, repoErr("FindLoan", err)
	}

	loan.Returned = true
	loan.UpdatedAt = timestamp()
	loan.LastModifiedBy = actor.ID
	loan, err = txRepo.UpdateLoan(ctx, loan)
	if err != nil {
		return 0, repoErr("UpdateLoan", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("returning book, committing: %w", err)
	}

	s.notify(b, loan)
	return loan.ID, nil
}

/* Only the owner approves, and only a loan that was already returned and is not approved yet. */
func (s *Service) ApproveReturnBorrowedBook(ctx context.Context, bookID int64, actor Actor) (int64, error) {
	txRepo, tx, err := s.repo.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("approving return: %w", err)
	}
	defer tx.Rollback()

	b, err := txRepo.GetBookByID(ctx, bookID)
	if err != nil {
		return 0, repoErr("GetBookByID", err)
	}
	if !b.Borrowable() {
		return 0, ErrResponseBookNotBorrowable
	}
	if b.OwnerID != actor.ID {
		return 0, ErrResponseNotOwnerApprove
	}

	loan, err := txRepo.FindLoan(ctx, LoanFilter{BookID: bookID, OwnerID: actor.ID, Returned: toPointer(true), Approved: toPointer(false)})
	if errors.Is(err, ErrResponseLoanNotFound) {
		return 0, ErrResponseBookNotReturned
	}
	if err != nil {
		return 0, repoErr("FindLoan", err)
	}

	loan.ReturnApproved = true
	loan.UpdatedAt = timestamp()
	loan.LastModifiedBy = actor.ID
	loan, err = txRepo.UpdateLoan(ctx, loan)
	if err != nil {
		return 0, repoErr("UpdateLoan", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("approving return, committing: %w", err)
	}

	s.notify(b, loan)
	return loan.ID, nil
}

/* Sends the loan change in the background; a failed notification never fails the request. */
func (s *Service) notify(b Book, loan Loan) {
	if s.notifier == nil {
		return
	}

	event := LoanEvent{
		State:      loan.State(),
		LoanID:     loan.ID,
		BookID:     b.ID,
		Title:      b.Title,
		OwnerID:    b.OwnerID,
		BorrowerID: loan.UserID,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notificationsTimeout)
		defer cancel()
		err := s.notifier.LoanChanged(ctx, event)
		if err != nil {
			s.logger.Warn("loan notification failed", slog.Int64("loan_id", event.LoanID), slog.String("error", err.Error()))
		}
	}()
}
