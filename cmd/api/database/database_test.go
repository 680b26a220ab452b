package database_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/book-network/cmd/api/book"
	"github.com/book-network/cmd/api/database"
	"github.com/book-network/cmd/api/user"
	"github.com/golang-migrate/migrate/v4"
	"github.com/jmoiron/sqlx"
	"github.com/matryer/is"
)

var store *database.Store
var sqlDB *sqlx.DB
var ctx context.Context = context.Background()

const migrationsPath = "../../../migrations"

// TestMain connects to the database named by DATABASE_URL and migrates it up.
// Without DATABASE_URL the package is skipped.
func TestMain(m *testing.M) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Println("DATABASE_URL not set, skipping database tests")
		os.Exit(0)
	}

	var err error
	sqlDB, err = database.ConnectDb(os.Getenv("DATABASE_DRIVER"), connStr)
	if err != nil {
		log.Fatalln(err)
	}

	store = database.NewStore(sqlDB)
	path := os.Getenv("DATABASE_MIGRATIONS_PATH")
	if path == "" {
		path = migrationsPath
	}
	err = database.MigrationUp(store, path)
	if err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalln(err)
		}
		log.Println(err)
	}

	os.Exit(m.Run())
}

func createUser(is *is.I, email string) user.User {
	now := time.Now().UTC().Round(time.Millisecond)
	u, err := store.CreateUser(ctx, user.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "hash",
		Enabled:   true,
		Roles:     []string{user.RoleUser},
		CreatedAt: now,
		UpdatedAt: now,
	})
	is.NoErr(err)
	return u
}

func seedRoles(is *is.I) {
	_, err := store.GetRoleByName(ctx, user.RoleUser)
	if errors.Is(err, user.ErrResponseRoleNotFound) {
		_, err = store.CreateRole(ctx, user.Role{Name: user.RoleUser, CreatedAt: time.Now(), UpdatedAt: time.Now()})
	}
	is.NoErr(err)
}

func createBook(is *is.I, owner int64, title string, createdAt time.Time) book.Book {
	b, err := store.CreateBook(ctx, book.Book{
		Title:          title,
		AuthorName:     "Clarice Lispector",
		ISBN:           "978-85-325-0842-1",
		Synopsis:       "A novel.",
		OwnerID:        owner,
		Shareable:      true,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
		CreatedBy:      owner,
		LastModifiedBy: owner,
	})
	is.NoErr(err)
	return b
}

func TestBooks(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})
	is := is.New(t)
	seedRoles(is)
	owner := createUser(is, "owner@mail.com")
	other := createUser(is, "other@mail.com")
	base := time.Now().UTC().Round(time.Millisecond)

	t.Run("creates a book and reads it back with the owner name", func(t *testing.T) {
		is := is.New(t)

		b := createBook(is, owner.ID, "A hora da estrela", base)
		is.True(b.ID > 0)
		is.Equal(b.OwnerName, "Test User")
		is.True(b.CreatedAt.Equal(base))
	})

	t.Run("updates flags and cover, rating is cumulative", func(t *testing.T) {
		is := is.New(t)

		b := createBook(is, owner.ID, "Perto do coração selvagem", base.Add(time.Second))
		b.Archived = true
		b.Cover = "covers/1/a.png"
		updated, err := store.UpdateBook(ctx, b)
		is.NoErr(err)
		is.True(updated.Archived)
		is.Equal(updated.Cover, "covers/1/a.png")

		is.NoErr(store.AddBookRating(ctx, b.ID, 5))
		is.NoErr(store.AddBookRating(ctx, b.ID, 2))
		rated, err := store.GetBookByID(ctx, b.ID)
		is.NoErr(err)
		is.Equal(rated.Rate(), 3.5)
	})

	t.Run("not found", func(t *testing.T) {
		is := is.New(t)

		_, err := store.GetBookByID(ctx, -1)
		is.True(errors.Is(err, book.ErrResponseBookNotFound))
		_, err = store.UpdateBook(ctx, book.Book{ID: -1})
		is.True(errors.Is(err, book.ErrResponseBookNotFound))
	})

	t.Run("lists displayable books newest first", func(t *testing.T) {
		is := is.New(t)

		createBook(is, other.ID, "Laços de família", base.Add(time.Minute))
		filter := book.BookFilter{ExcludeOwnerID: owner.ID, Displayable: true}

		total, err := store.ListBooksTotals(ctx, filter)
		is.NoErr(err)
		is.Equal(total, 1)

		books, err := store.ListBooks(ctx, filter, 0, 10)
		is.NoErr(err)
		is.Equal(len(books), 1)
		is.Equal(books[0].Title, "Laços de família")

		owned, err := store.ListBooks(ctx, book.BookFilter{OwnerID: owner.ID}, 0, 10)
		is.NoErr(err)
		is.Equal(len(owned), 2)
		is.True(!owned[0].CreatedAt.Before(owned[1].CreatedAt))
	})
}

func TestLoansAndFeedbacks(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})
	is := is.New(t)
	seedRoles(is)
	owner := createUser(is, "lender@mail.com")
	borrower := createUser(is, "borrower@mail.com")
	b := createBook(is, owner.ID, "Água viva", time.Now().UTC())
	now := time.Now().UTC().Round(time.Millisecond)

	loan, err := store.CreateLoan(ctx, book.Loan{BookID: b.ID, UserID: borrower.ID, CreatedAt: now, UpdatedAt: now, CreatedBy: borrower.ID, LastModifiedBy: borrower.ID})
	is.NoErr(err)

	t.Run("the partial unique index refuses a second open loan", func(t *testing.T) {
		is := is.New(t)

		_, err := store.CreateLoan(ctx, book.Loan{BookID: b.ID, UserID: borrower.ID, CreatedAt: now, UpdatedAt: now, CreatedBy: borrower.ID, LastModifiedBy: borrower.ID})
		is.True(errors.Is(err, book.ErrResponseBookAlreadyBorrowed))
	})

	t.Run("finds and updates the loan", func(t *testing.T) {
		is := is.New(t)
		open := false

		found, err := store.FindLoan(ctx, book.LoanFilter{BookID: b.ID, BorrowerID: borrower.ID, Returned: &open})
		is.NoErr(err)
		is.Equal(found.ID, loan.ID)

		found.Returned = true
		updated, err := store.UpdateLoan(ctx, found)
		is.NoErr(err)
		is.Equal(updated.State(), book.LoanReturned)

		borrowed, err := store.ListBorrowedBooks(ctx, book.LoanFilter{OwnerID: owner.ID}, 0, 10)
		is.NoErr(err)
		is.Equal(len(borrowed), 1)
		is.True(borrowed[0].Returned)
	})

	t.Run("rollback discards a feedback", func(t *testing.T) {
		is := is.New(t)

		txRepo, tx, err := store.BeginTx(ctx, nil)
		is.NoErr(err)
		_, err = txRepo.CreateFeedback(ctx, book.Feedback{Note: 4, Comment: "good", BookID: b.ID, CreatedAt: now, UpdatedAt: now, CreatedBy: borrower.ID, LastModifiedBy: borrower.ID})
		is.NoErr(err)
		is.NoErr(tx.Rollback())

		total, err := store.ListFeedbacksTotals(ctx, b.ID)
		is.NoErr(err)
		is.Equal(total, 0)
	})

	t.Run("stores and lists feedbacks", func(t *testing.T) {
		is := is.New(t)

		_, err := store.CreateFeedback(ctx, book.Feedback{Note: 3, Comment: "fine", BookID: b.ID, CreatedAt: now, UpdatedAt: now, CreatedBy: borrower.ID, LastModifiedBy: borrower.ID})
		is.NoErr(err)

		feedbacks, err := store.ListFeedbacks(ctx, b.ID, 0, 10)
		is.NoErr(err)
		is.Equal(len(feedbacks), 1)
		is.Equal(feedbacks[0].Comment, "fine")
	})
}

func TestUsers(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})
	is := is.New(t)
	seedRoles(is)
	u := createUser(is, "Mixed@Mail.com")

	t.Run("email is stored lowercased and unique", func(t *testing.T) {
		is := is.New(t)

		found, err := store.GetUserByEmail(ctx, "mixed@mail.com")
		is.NoErr(err)
		is.Equal(found.ID, u.ID)
		is.Equal(found.Roles, []string{user.RoleUser})

		_, err = store.CreateUser(ctx, user.User{FirstName: "a", LastName: "b", Email: "mixed@mail.com", Password: "x", CreatedAt: time.Now(), UpdatedAt: time.Now()})
		is.True(errors.Is(err, user.ErrResponseEmailTaken))
	})

	t.Run("activation tokens", func(t *testing.T) {
		is := is.New(t)
		now := time.Now().UTC().Round(time.Millisecond)

		tok, err := store.CreateToken(ctx, user.Token{Token: "654321", CreatedAt: now, ExpiresAt: now.Add(time.Minute), UserID: u.ID})
		is.NoErr(err)
		tok.ValidatedAt = &now
		_, err = store.UpdateToken(ctx, tok)
		is.NoErr(err)

		fetched, err := store.GetToken(ctx, "654321")
		is.NoErr(err)
		is.True(fetched.ValidatedAt != nil)

		u.Enabled = false
		updated, err := store.UpdateUser(ctx, u)
		is.NoErr(err)
		is.True(!updated.Enabled)
	})
}

func TestDownMigrations(t *testing.T) {
	is := is.New(t)

	t.Cleanup(func() {
		err := database.MigrationUp(store, migrationsPath)
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			t.Fatal(err)
		}
	})

	is.NoErr(database.MigrationDown(store, migrationsPath))

	var tableExists bool
	err := sqlDB.QueryRow(`SELECT EXISTS (
		SELECT FROM pg_tables
		WHERE schemaname = 'public' AND tablename = 'books'
		);`).Scan(&tableExists)
	is.NoErr(err)
	is.True(!tableExists)
}

func teardownDB(t *testing.T) {
	is := is.New(t)

	_, err := sqlDB.Exec(`TRUNCATE TABLE feedbacks, book_transaction_history, books, tokens, users_roles, users RESTART IDENTITY CASCADE`)
	is.NoErr(err)
}
