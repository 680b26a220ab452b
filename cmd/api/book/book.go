package book

import (
	"strings"
	"time"
)

// Actor is the already authenticated user on whose behalf an operation runs.
type Actor struct {
	ID int64
}

type Book struct {
	ID             int64
	Title          string
	AuthorName     string
	ISBN           string
	Synopsis       string
	OwnerID        int64
	OwnerName      string
	Cover          string
	RateSum        float64
	RateCount      int
	Archived       bool
	Shareable      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CreatedBy      int64
	LastModifiedBy int64
}

/* Average of all the notes the book received, 0 when nobody rated it yet. */
func (b Book) Rate() float64 {
	if b.RateCount == 0 {
		return 0
	}
	return b.RateSum / float64(b.RateCount)
}

/* A book can be borrowed or receive feedback only while it is shareable and not archived. */
func (b Book) Borrowable() bool {
	return !b.Archived && b.Shareable
}

// BookFilter selects books on listings. Zero values disable a criterion.
type BookFilter struct {
	OwnerID        int64
	ExcludeOwnerID int64
	Displayable    bool
}

/* Reports whether b passes every criterion of the filter. */
func (f BookFilter) Match(b Book) bool {
	if f.OwnerID != 0 && b.OwnerID != f.OwnerID {
		return false
	}
	if f.ExcludeOwnerID != 0 && b.OwnerID == f.ExcludeOwnerID {
		return false
	}
	if f.Displayable && !b.Borrowable() {
		return false
	}
	return true
}

type CreateBookRequest struct {
	Title      string
	AuthorName string
	ISBN       string
	Synopsis   string
	Shareable  bool
}

/* Verifies if all entry fields are filled and returns a warning message if not. */
func (r CreateBookRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrResponseBookEntryBlankTitle
	}
	if strings.TrimSpace(r.AuthorName) == "" {
		return ErrResponseBookEntryBlankAuthor
	}
	if strings.TrimSpace(r.ISBN) == "" {
		return ErrResponseBookEntryBlankISBN
	}
	if strings.TrimSpace(r.Synopsis) == "" {
		return ErrResponseBookEntryBlankSynopsis
	}
	return nil
}

/* Converts a validated request into a new book owned by the actor. */
func (r CreateBookRequest) toBook(actor Actor, now time.Time) Book {
	return Book{
		Title:          strings.TrimSpace(r.Title),
		AuthorName:     strings.TrimSpace(r.AuthorName),
		ISBN:           strings.TrimSpace(r.ISBN),
		Synopsis:       strings.TrimSpace(r.Synopsis),
		OwnerID:        actor.ID,
		Archived:       false,
		Shareable:      r.Shareable,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      actor.ID,
		LastModifiedBy: actor.ID,
	}
}

func timestamp() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}

func toPointer[T any](v T) *T {
	return &v
}
