package book

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const NoteMin = 0.0
const NoteMax = 5.0

type FeedbackServiceAPI interface {
	SaveFeedback(ctx context.Context, req FeedbackRequest, actor Actor) (int64, error)
	ListFeedbacksByBook(ctx context.Context, bookID int64, page, size int, actor Actor) (Page[FeedbackView], error)
}

type Feedback struct {
	ID             int64
	Note           float64
	Comment        string
	BookID         int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CreatedBy      int64
	LastModifiedBy int64
}

type FeedbackRequest struct {
	Note    *float64
	Comment string
	BookID  int64
}

/* Checks every field and returns the error of the first invalid one. */
func (r FeedbackRequest) Validate() error {
	if r.Note == nil {
		return ErrResponseFeedbackBlankNote
	}
	if *r.Note < NoteMin {
		return ErrResponseFeedbackNoteTooLow
	}
	if *r.Note > NoteMax {
		return ErrResponseFeedbackNoteTooHigh
	}
	if strings.TrimSpace(r.Comment) == "" {
		return ErrResponseFeedbackBlankComment
	}
	if r.BookID <= 0 {
		return ErrResponseFeedbackBlankBookID
	}
	return nil
}

// FeedbackView is a feedback as seen by the requesting user.
type FeedbackView struct {
	ID          int64
	Note        float64
	Comment     string
	OwnFeedback bool
	CreatedAt   time.Time
}

func toFeedbackView(f Feedback, actor Actor) FeedbackView {
	return FeedbackView{
		ID:          f.ID,
		Note:        f.Note,
		Comment:     f.Comment,
		OwnFeedback: f.CreatedBy == actor.ID,
		CreatedAt:   f.CreatedAt,
	}
}

type FeedbackService struct {
	repo Repository
}

func NewFeedbackService(repo Repository) *FeedbackService {
	return &FeedbackService{repo: repo}
}

/* Stores the feedback and adds its note to the book rating inside one transaction. */
func (s *FeedbackService) SaveFeedback(ctx context.Context, req FeedbackRequest, actor Actor) (int64, error) {
	err := req.Validate()
	if err != nil {
		return 0, err
	}

	txRepo, tx, err := s.repo.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("saving feedback: %w", err)
	}
	defer tx.Rollback()

	b, err := txRepo.GetBookByID(ctx, req.BookID)
	if err != nil {
		return 0, repoErr("GetBookByID", err)
	}
	if !b.Borrowable() {
		return 0, ErrResponseFeedbackNotAllowed
	}
	if b.OwnerID == actor.ID {
		return 0, ErrResponseFeedbackOwnBook
	}

	now := timestamp()
	f, err := txRepo.CreateFeedback(ctx, Feedback{
		Note:           *req.Note,
		Comment:        strings.TrimSpace(req.Comment),
		BookID:         b.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      actor.ID,
		LastModifiedBy: actor.ID,
	})
	if err != nil {
		return 0, repoErr("CreateFeedback", err)
	}

	err = txRepo.AddBookRating(ctx, b.ID, f.Note)
	if err != nil {
		return 0, repoErr("AddBookRating", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("saving feedback, committing: %w", err)
	}
	return f.ID, nil
}

func (s *FeedbackService) ListFeedbacksByBook(ctx context.Context, bookID int64, page, size int, actor Actor) (Page[FeedbackView], error) {
	_, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return Page[FeedbackView]{}, repoErr("GetBookByID", err)
	}

	return fetchPage(page, size,
		func() (int, error) {
			total, err := s.repo.ListFeedbacksTotals(ctx, bookID)
			return total, repoErr("ListFeedbacksTotals", err)
		},
		func() ([]FeedbackView, error) {
			feedbacks, err := s.repo.ListFeedbacks(ctx, bookID, page, size)
			if err != nil {
				return nil, repoErr("ListFeedbacks", err)
			}
			views := make([]FeedbackView, 0, len(feedbacks))
			for _, f := range feedbacks {
				views = append(views, toFeedbackView(f, actor))
			}
			return views, nil
		})
}
