package inmemory_test

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/book-network/cmd/api/book"
	"github.com/book-network/cmd/api/inmemory"
	"github.com/book-network/cmd/api/user"
	"github.com/matryer/is"
)

var ctx context.Context = context.Background()

func newStore() *inmemory.InMemoryStore {
	store, err := inmemory.NewInMemoryStore()
	if err != nil {
		log.Fatalln(err)
	}
	return store
}

func newBook(ownerID int64, title string, createdAt time.Time) book.Book {
	return book.Book{
		Title:          title,
		AuthorName:     "Machado de Assis",
		ISBN:           "978-85-359-0277-6",
		Synopsis:       "A novel.",
		OwnerID:        ownerID,
		Shareable:      true,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
		CreatedBy:      ownerID,
		LastModifiedBy: ownerID,
	}
}

func TestCreateBook(t *testing.T) {
	store := newStore()

	t.Run("creates a book and assigns sequential ids", func(t *testing.T) {
		is := is.New(t)
		now := time.Now().UTC().Round(time.Millisecond)

		first, err := store.CreateBook(ctx, newBook(1, "Dom Casmurro", now))
		is.NoErr(err)
		second, err := store.CreateBook(ctx, newBook(1, "Quincas Borba", now))
		is.NoErr(err)

		is.Equal(first.ID, int64(1))
		is.Equal(second.ID, int64(2))

		fetched, err := store.GetBookByID(ctx, first.ID)
		is.NoErr(err)
		is.Equal(fetched.Title, "Dom Casmurro")
		is.True(fetched.CreatedAt.Equal(now))
	})

	t.Run("fills the owner name when the owner exists", func(t *testing.T) {
		is := is.New(t)

		u, err := store.CreateUser(ctx, user.User{FirstName: "Ana", LastName: "Lima", Email: "ana@mail.com"})
		is.NoErr(err)

		b, err := store.CreateBook(ctx, newBook(u.ID, "Helena", time.Now()))
		is.NoErr(err)
		is.Equal(b.OwnerName, "Ana Lima")
	})
}

func TestGetBookByIDNotFound(t *testing.T) {
	is := is.New(t)
	store := newStore()

	_, err := store.GetBookByID(ctx, 99)
	is.True(errors.Is(err, book.ErrResponseBookNotFound))
}

func TestUpdateBook(t *testing.T) {
	store := newStore()

	t.Run("updates mutable fields and keeps the owner and the rating", func(t *testing.T) {
		is := is.New(t)

		b, err := store.CreateBook(ctx, newBook(1, "Iaiá Garcia", time.Now()))
		is.NoErr(err)
		is.NoErr(store.AddBookRating(ctx, b.ID, 4))

		b.Archived = true
		b.Cover = "covers/1/x.png"
		b.OwnerID = 2
		b.RateCount = 0
		updated, err := store.UpdateBook(ctx, b)
		is.NoErr(err)

		is.True(updated.Archived)
		is.Equal(updated.Cover, "covers/1/x.png")
		is.Equal(updated.OwnerID, int64(1))
		is.Equal(updated.RateCount, 1)
	})

	t.Run("updating a non existing book returns not found", func(t *testing.T) {
		is := is.New(t)

		_, err := store.UpdateBook(ctx, book.Book{ID: 42})
		is.True(errors.Is(err, book.ErrResponseBookNotFound))
	})
}

func TestListBooks(t *testing.T) {
	is := is.New(t)
	store := newStore()
	base := time.Now().UTC().Round(time.Millisecond)

	for i := 0; i < 5; i++ {
		_, err := store.CreateBook(ctx, newBook(1, "owned", base.Add(time.Duration(i)*time.Minute)))
		is.NoErr(err)
	}
	hidden := newBook(2, "archived", base)
	hidden.Archived = true
	_, err := store.CreateBook(ctx, hidden)
	is.NoErr(err)
	_, err = store.CreateBook(ctx, newBook(2, "other", base.Add(time.Hour)))
	is.NoErr(err)

	t.Run("displayable excludes the actor and hidden books", func(t *testing.T) {
		is := is.New(t)
		filter := book.BookFilter{ExcludeOwnerID: 1, Displayable: true}

		total, err := store.ListBooksTotals(ctx, filter)
		is.NoErr(err)
		is.Equal(total, 1)

		books, err := store.ListBooks(ctx, filter, 0, 10)
		is.NoErr(err)
		is.Equal(len(books), 1)
		is.Equal(books[0].Title, "other")
	})

	t.Run("owner listing is newest first and paginated", func(t *testing.T) {
		is := is.New(t)
		filter := book.BookFilter{OwnerID: 1}

		page0, err := store.ListBooks(ctx, filter, 0, 2)
		is.NoErr(err)
		is.Equal(len(page0), 2)
		is.True(page0[0].CreatedAt.After(page0[1].CreatedAt))

		page2, err := store.ListBooks(ctx, filter, 2, 2)
		is.NoErr(err)
		is.Equal(len(page2), 1)

		page3, err := store.ListBooks(ctx, filter, 3, 2)
		is.NoErr(err)
		is.Equal(len(page3), 0)
	})
}

func TestLoans(t *testing.T) {
	store := newStore()
	b, err := store.CreateBook(ctx, newBook(1, "Memorial de Aires", time.Now()))
	if err != nil {
		log.Fatalln(err)
	}

	var loan book.Loan

	t.Run("creates a loan", func(t *testing.T) {
		is := is.New(t)

		loan, err = store.CreateLoan(ctx, book.Loan{BookID: b.ID, UserID: 2, CreatedAt: time.Now()})
		is.NoErr(err)
		is.True(loan.ID > 0)
	})

	t.Run("refuses a second unreturned loan by the same user", func(t *testing.T) {
		is := is.New(t)

		_, err := store.CreateLoan(ctx, book.Loan{BookID: b.ID, UserID: 2, CreatedAt: time.Now()})
		is.True(errors.Is(err, book.ErrResponseBookAlreadyBorrowed))
	})

	t.Run("finds the loan by borrower and by owner", func(t *testing.T) {
		is := is.New(t)
		returned := false

		found, err := store.FindLoan(ctx, book.LoanFilter{BookID: b.ID, BorrowerID: 2, Returned: &returned})
		is.NoErr(err)
		is.Equal(found.ID, loan.ID)

		found, err = store.FindLoan(ctx, book.LoanFilter{BookID: b.ID, OwnerID: 1})
		is.NoErr(err)
		is.Equal(found.ID, loan.ID)

		_, err = store.FindLoan(ctx, book.LoanFilter{BookID: b.ID, OwnerID: 3})
		is.True(errors.Is(err, book.ErrResponseLoanNotFound))
	})

	t.Run("updates the loan flags", func(t *testing.T) {
		is := is.New(t)

		loan.Returned = true
		updated, err := store.UpdateLoan(ctx, loan)
		is.NoErr(err)
		is.True(updated.Returned)
		is.Equal(updated.State(), book.LoanReturned)
	})

	t.Run("lists borrowed books joined with the book", func(t *testing.T) {
		is := is.New(t)

		total, err := store.ListBorrowedBooksTotals(ctx, book.LoanFilter{BorrowerID: 2})
		is.NoErr(err)
		is.Equal(total, 1)

		borrowed, err := store.ListBorrowedBooks(ctx, book.LoanFilter{OwnerID: 1}, 0, 10)
		is.NoErr(err)
		is.Equal(len(borrowed), 1)
		is.Equal(borrowed[0].Title, "Memorial de Aires")
		is.True(borrowed[0].Returned)
	})
}

func TestFeedbacks(t *testing.T) {
	is := is.New(t)
	store := newStore()
	base := time.Now().UTC()

	for i, note := range []float64{2, 4} {
		_, err := store.CreateFeedback(ctx, book.Feedback{Note: note, Comment: "ok", BookID: 1, CreatedAt: base.Add(time.Duration(i) * time.Second), CreatedBy: 2})
		is.NoErr(err)
	}
	_, err := store.CreateFeedback(ctx, book.Feedback{Note: 1, Comment: "other", BookID: 2, CreatedAt: base, CreatedBy: 2})
	is.NoErr(err)

	total, err := store.ListFeedbacksTotals(ctx, 1)
	is.NoErr(err)
	is.Equal(total, 2)

	feedbacks, err := store.ListFeedbacks(ctx, 1, 0, 10)
	is.NoErr(err)
	is.Equal(len(feedbacks), 2)
	is.Equal(feedbacks[0].Note, 4.0)
}

func TestTransactions(t *testing.T) {
	store := newStore()

	t.Run("rollback discards every write", func(t *testing.T) {
		is := is.New(t)

		txRepo, tx, err := store.BeginTx(ctx, nil)
		is.NoErr(err)
		b, err := txRepo.CreateBook(ctx, newBook(1, "discarded", time.Now()))
		is.NoErr(err)
		is.NoErr(tx.Rollback())

		_, err = store.GetBookByID(ctx, b.ID)
		is.True(errors.Is(err, book.ErrResponseBookNotFound))
	})

	t.Run("commit keeps the writes and rating", func(t *testing.T) {
		is := is.New(t)

		txRepo, tx, err := store.BeginTx(ctx, nil)
		is.NoErr(err)
		b, err := txRepo.CreateBook(ctx, newBook(1, "kept", time.Now()))
		is.NoErr(err)
		is.NoErr(txRepo.AddBookRating(ctx, b.ID, 3))
		is.NoErr(txRepo.AddBookRating(ctx, b.ID, 4))
		is.NoErr(tx.Commit())
		is.NoErr(tx.Rollback())

		fetched, err := store.GetBookByID(ctx, b.ID)
		is.NoErr(err)
		is.Equal(fetched.RateCount, 2)
		is.Equal(fetched.Rate(), 3.5)
	})
}

func TestUsers(t *testing.T) {
	store := newStore()

	t.Run("email lookups ignore case and duplicates are refused", func(t *testing.T) {
		is := is.New(t)

		u, err := store.CreateUser(ctx, user.User{FirstName: "Bia", LastName: "Reis", Email: "bia@mail.com", Roles: []string{user.RoleUser}})
		is.NoErr(err)

		found, err := store.GetUserByEmail(ctx, "BIA@mail.com")
		is.NoErr(err)
		is.Equal(found.ID, u.ID)
		is.Equal(found.Roles, []string{user.RoleUser})

		_, err = store.CreateUser(ctx, user.User{Email: "bia@mail.com"})
		is.True(errors.Is(err, user.ErrResponseEmailTaken))
	})

	t.Run("missing user returns not found", func(t *testing.T) {
		is := is.New(t)

		_, err := store.GetUserByID(ctx, 404)
		is.True(errors.Is(err, user.ErrResponseUserNotFound))
	})

	t.Run("roles and tokens", func(t *testing.T) {
		is := is.New(t)

		_, err := store.GetRoleByName(ctx, user.RoleUser)
		is.True(errors.Is(err, user.ErrResponseRoleNotFound))
		_, err = store.CreateRole(ctx, user.Role{Name: user.RoleUser})
		is.NoErr(err)
		role, err := store.GetRoleByName(ctx, user.RoleUser)
		is.NoErr(err)
		is.Equal(role.Name, user.RoleUser)

		tok, err := store.CreateToken(ctx, user.Token{Token: "123456", UserID: 1, ExpiresAt: time.Now().Add(time.Minute)})
		is.NoErr(err)
		now := time.Now()
		tok.ValidatedAt = &now
		_, err = store.UpdateToken(ctx, tok)
		is.NoErr(err)

		fetched, err := store.GetToken(ctx, "123456")
		is.NoErr(err)
		is.True(fetched.ValidatedAt != nil)

		_, err = store.GetToken(ctx, "000000")
		is.True(errors.Is(err, user.ErrResponseTokenNotFound))
	})
}
