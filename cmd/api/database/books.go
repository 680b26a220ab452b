package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/book-network/cmd/api/book"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

const (
	tableBooks     = "books"
	tableLoans     = "book_transaction_history"
	tableFeedbacks = "feedbacks"
)

type bookRow struct {
	ID             int64          `db:"id"`
	Title          string         `db:"title"`
	AuthorName     string         `db:"author_name"`
	ISBN           string         `db:"isbn"`
	Synopsis       string         `db:"synopsis"`
	Cover          sql.NullString `db:"book_cover"`
	RateSum        float64        `db:"rate_sum"`
	RateCount      int            `db:"rate_count"`
	Archived       bool           `db:"archived"`
	Shareable      bool           `db:"shareable"`
	OwnerID        int64          `db:"owner_id"`
	OwnerName      string         `db:"owner_name"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	CreatedBy      int64          `db:"created_by"`
	LastModifiedBy int64          `db:"last_modified_by"`
}

func (r bookRow) toBook() book.Book {
	return book.Book{
		ID:             r.ID,
		Title:          r.Title,
		AuthorName:     r.AuthorName,
		ISBN:           r.ISBN,
		Synopsis:       r.Synopsis,
		OwnerID:        r.OwnerID,
		OwnerName:      r.OwnerName,
		Cover:          r.Cover.String,
		RateSum:        r.RateSum,
		RateCount:      r.RateCount,
		Archived:       r.Archived,
		Shareable:      r.Shareable,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		CreatedBy:      r.CreatedBy,
		LastModifiedBy: r.LastModifiedBy,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

/* Books joined with their owner, so the owner name comes in the same row. */
func (store *Store) booksQuery() *goqu.SelectDataset {
	return store.dialect.From(goqu.T(tableBooks).As("b")).
		LeftJoin(goqu.T(tableUsers).As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("b.owner_id")))).
		Select(
			goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author_name"), goqu.I("b.isbn"), goqu.I("b.synopsis"),
			goqu.I("b.book_cover"), goqu.I("b.rate_sum"), goqu.I("b.rate_count"), goqu.I("b.archived"),
			goqu.I("b.shareable"), goqu.I("b.owner_id"),
			goqu.L("COALESCE(u.firstname || ' ' || u.lastname, '')").As("owner_name"),
			goqu.I("b.created_at"), goqu.I("b.updated_at"), goqu.I("b.created_by"), goqu.I("b.last_modified_by"),
		).
		Prepared(true)
}

func bookFilterExp(f book.BookFilter) exp.ExpressionList {
	where := goqu.And()
	if f.OwnerID != 0 {
		where = where.Append(goqu.I("b.owner_id").Eq(f.OwnerID))
	}
	if f.ExcludeOwnerID != 0 {
		where = where.Append(goqu.I("b.owner_id").Neq(f.ExcludeOwnerID))
	}
	if f.Displayable {
		where = where.Append(goqu.I("b.archived").IsFalse(), goqu.I("b.shareable").IsTrue())
	}
	return where
}

func (store *Store) CreateBook(ctx context.Context, b book.Book) (book.Book, error) {
	ds := store.dialect.Insert(tableBooks).Rows(goqu.Record{
		"title":            b.Title,
		"author_name":      b.AuthorName,
		"isbn":             b.ISBN,
		"synopsis":         b.Synopsis,
		"book_cover":       nullString(b.Cover),
		"archived":         b.Archived,
		"shareable":        b.Shareable,
		"owner_id":         b.OwnerID,
		"created_at":       b.CreatedAt,
		"updated_at":       b.UpdatedAt,
		"created_by":       b.CreatedBy,
		"last_modified_by": b.LastModifiedBy,
	}).Returning("id").Prepared(true)

	var id int64
	err := store.get(ctx, store.exc, &id, ds)
	if err != nil {
		return book.Book{}, fmt.Errorf("storing book on db: %w", err)
	}
	return store.GetBookByID(ctx, id)
}

func (store *Store) GetBookByID(ctx context.Context, id int64) (book.Book, error) {
	var row bookRow
	err := store.get(ctx, store.exc, &row, store.booksQuery().Where(goqu.I("b.id").Eq(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, fmt.Errorf("searching book by ID: %w", book.ErrResponseBookNotFound)
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("searching book by ID: %w", err)
	}
	return row.toBook(), nil
}

/* Rating columns and the owner are never touched here. */
func (store *Store) UpdateBook(ctx context.Context, b book.Book) (book.Book, error) {
	ds := store.dialect.Update(tableBooks).Set(goqu.Record{
		"title":            b.Title,
		"author_name":      b.AuthorName,
		"isbn":             b.ISBN,
		"synopsis":         b.Synopsis,
		"book_cover":       nullString(b.Cover),
		"archived":         b.Archived,
		"shareable":        b.Shareable,
		"updated_at":       b.UpdatedAt,
		"last_modified_by": b.LastModifiedBy,
	}).Where(goqu.C("id").Eq(b.ID)).Prepared(true)

	affected, err := store.exec(ctx, store.exc, ds)
	if err != nil {
		return book.Book{}, fmt.Errorf("updating book on db: %w", err)
	}
	if affected == 0 {
		return book.Book{}, fmt.Errorf("updating book on db: %w", book.ErrResponseBookNotFound)
	}
	return store.GetBookByID(ctx, b.ID)
}

func (store *Store) AddBookRating(ctx context.Context, bookID int64, note float64) error {
	ds := store.dialect.Update(tableBooks).Set(goqu.Record{
		"rate_sum":   goqu.L("rate_sum + ?", note),
		"rate_count": goqu.L("rate_count + 1"),
	}).Where(goqu.C("id").Eq(bookID)).Prepared(true)

	affected, err := store.exec(ctx, store.exc, ds)
	if err != nil {
		return fmt.Errorf("rating book on db: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rating book on db: %w", book.ErrResponseBookNotFound)
	}
	return nil
}

/* Newest first, ties broken by id so pages never overlap. */
func (store *Store) ListBooks(ctx context.Context, filter book.BookFilter, page, pageSize int) ([]book.Book, error) {
	ds := store.booksQuery().
		Where(bookFilterExp(filter)).
		Order(goqu.I("b.created_at").Desc(), goqu.I("b.id").Desc()).
		Limit(uint(pageSize)).
		Offset(offset(page, pageSize))

	var rows []bookRow
	err := store.selectAll(ctx, store.exc, &rows, ds)
	if err != nil {
		return nil, fmt.Errorf("listing books from db: %w", err)
	}

	books := make([]book.Book, 0, len(rows))
	for _, r := range rows {
		books = append(books, r.toBook())
	}
	return books, nil
}

func (store *Store) ListBooksTotals(ctx context.Context, filter book.BookFilter) (int, error) {
	ds := store.dialect.From(goqu.T(tableBooks).As("b")).
		Select(goqu.COUNT("*")).
		Where(bookFilterExp(filter)).
		Prepared(true)

	var total int
	err := store.get(ctx, store.exc, &total, ds)
	if err != nil {
		return 0, fmt.Errorf("counting books from db: %w", err)
	}
	return total, nil
}

// -- Loans --

type loanRow struct {
	ID             int64     `db:"id"`
	BookID         int64     `db:"book_id"`
	UserID         int64     `db:"user_id"`
	Returned       bool      `db:"returned"`
	ReturnApproved bool      `db:"return_approved"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	CreatedBy      int64     `db:"created_by"`
	LastModifiedBy int64     `db:"last_modified_by"`
}

func (r loanRow) toLoan() book.Loan {
	return book.Loan{
		ID:             r.ID,
		BookID:         r.BookID,
		UserID:         r.UserID,
		Returned:       r.Returned,
		ReturnApproved: r.ReturnApproved,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		CreatedBy:      r.CreatedBy,
		LastModifiedBy: r.LastModifiedBy,
	}
}

type borrowedRow struct {
	LoanID         int64     `db:"loan_id"`
	BookID         int64     `db:"book_id"`
	Title          string    `db:"title"`
	AuthorName     string    `db:"author_name"`
	ISBN           string    `db:"isbn"`
	RateSum        float64   `db:"rate_sum"`
	RateCount      int       `db:"rate_count"`
	Returned       bool      `db:"returned"`
	ReturnApproved bool      `db:"return_approved"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r borrowedRow) toBorrowedBook() book.BorrowedBook {
	b := book.Book{RateSum: r.RateSum, RateCount: r.RateCount}
	return book.BorrowedBook{
		LoanID:         r.LoanID,
		BookID:         r.BookID,
		Title:          r.Title,
		AuthorName:     r.AuthorName,
		ISBN:           r.ISBN,
		Rate:           b.Rate(),
		Returned:       r.Returned,
		ReturnApproved: r.ReturnApproved,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

/* Loans joined with their book, which carries the owner. */
func (store *Store) loansFrom() *goqu.SelectDataset {
	return store.dialect.From(goqu.T(tableLoans).As("h")).
		InnerJoin(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("h.book_id")))).
		Prepared(true)
}

func loanFilterExp(f book.LoanFilter) exp.ExpressionList {
	where := goqu.And()
	if f.BookID != 0 {
		where = where.Append(goqu.I("h.book_id").Eq(f.BookID))
	}
	if f.BorrowerID != 0 {
		where = where.Append(goqu.I("h.user_id").Eq(f.BorrowerID))
	}
	if f.OwnerID != 0 {
		where = where.Append(goqu.I("b.owner_id").Eq(f.OwnerID))
	}
	if f.Returned != nil {
		where = where.Append(goqu.I("h.returned").Eq(*f.Returned))
	}
	if f.Approved != nil {
		where = where.Append(goqu.I("h.return_approved").Eq(*f.Approved))
	}
	return where
}

/* A second unreturned loan of the same book by the same user hits the partial unique index. */
func (store *Store) CreateLoan(ctx context.Context, l book.Loan) (book.Loan, error) {
	ds := store.dialect.Insert(tableLoans).Rows(goqu.Record{
		"book_id":          l.BookID,
		"user_id":          l.UserID,
		"returned":         l.Returned,
		"return_approved":  l.ReturnApproved,
		"created_at":       l.CreatedAt,
		"updated_at":       l.UpdatedAt,
		"created_by":       l.CreatedBy,
		"last_modified_by": l.LastModifiedBy,
	}).Returning("id").Prepared(true)

	err := store.get(ctx, store.exc, &l.ID, ds)
	if isUniqueViolation(err) {
		return book.Loan{}, book.ErrResponseBookAlreadyBorrowed
	}
	if err != nil {
		return book.Loan{}, fmt.Errorf("storing loan on db: %w", err)
	}
	return l, nil
}

func (store *Store) FindLoan(ctx context.Context, filter book.LoanFilter) (book.Loan, error) {
	ds := store.loansFrom().
		Select(
			goqu.I("h.id"), goqu.I("h.book_id"), goqu.I("h.user_id"), goqu.I("h.returned"),
			goqu.I("h.return_approved"), goqu.I("h.created_at"), goqu.I("h.updated_at"),
			goqu.I("h.created_by"), goqu.I("h.last_modified_by"),
		).
		Where(loanFilterExp(filter)).
		Order(goqu.I("h.created_at").Desc(), goqu.I("h.id").Desc()).
		Limit(1)

	var row loanRow
	err := store.get(ctx, store.exc, &row, ds)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Loan{}, book.ErrResponseLoanNotFound
	}
	if err != nil {
		return book.Loan{}, fmt.Errorf("searching loan: %w", err)
	}
	return row.toLoan(), nil
}

func (store *Store) UpdateLoan(ctx context.Context, l book.Loan) (book.Loan, error) {
	ds := store.dialect.Update(tableLoans).Set(goqu.Record{
		"returned":         l.Returned,
		"return_approved":  l.ReturnApproved,
		"updated_at":       l.UpdatedAt,
		"last_modified_by": l.LastModifiedBy,
	}).Where(goqu.C("id").Eq(l.ID)).
		Returning("id", "book_id", "user_id", "returned", "return_approved", "created_at", "updated_at", "created_by", "last_modified_by").
		Prepared(true)

	var row loanRow
	err := store.get(ctx, store.exc, &row, ds)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Loan{}, fmt.Errorf("updating loan on db: %w", book.ErrResponseLoanNotFound)
	}
	if err != nil {
		return book.Loan{}, fmt.Errorf("updating loan on db: %w", err)
	}
	return row.toLoan(), nil
}

func (store *Store) ListBorrowedBooks(ctx context.Context, filter book.LoanFilter, page, pageSize int) ([]book.BorrowedBook, error) {
	ds := store.loansFrom().
		Select(
			goqu.I("h.id").As("loan_id"), goqu.I("b.id").As("book_id"), goqu.I("b.title"), goqu.I("b.author_name"),
			goqu.I("b.isbn"), goqu.I("b.rate_sum"), goqu.I("b.rate_count"), goqu.I("h.returned"),
			goqu.I("h.return_approved"), goqu.I("h.created_at"),
		).
		Where(loanFilterExp(filter)).
		Order(goqu.I("h.created_at").Desc(), goqu.I("h.id").Desc()).
		Limit(uint(pageSize)).
		Offset(offset(page, pageSize))

	var rows []borrowedRow
	err := store.selectAll(ctx, store.exc, &rows, ds)
	if err != nil {
		return nil, fmt.Errorf("listing borrowed books from db: %w", err)
	}

	borrowed := make([]book.BorrowedBook, 0, len(rows))
	for _, r := range rows {
		borrowed = append(borrowed, r.toBorrowedBook())
	}
	return borrowed, nil
}

func (store *Store) ListBorrowedBooksTotals(ctx context.Context, filter book.LoanFilter) (int, error) {
	ds := store.loansFrom().Select(goqu.COUNT("*")).Where(loanFilterExp(filter))

	var total int
	err := store.get(ctx, store.exc, &total, ds)
	if err != nil {
		return 0, fmt.Errorf("counting borrowed books from db: %w", err)
	}
	return total, nil
}

// -- Feedbacks --

type feedbackRow struct {
	ID             int64     `db:"id"`
	Note           float64   `db:"note"`
	Comment        string    `db:"comment"`
	BookID         int64     `db:"book_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	CreatedBy      int64     `db:"created_by"`
	LastModifiedBy int64     `db:"last_modified_by"`
}

func (r feedbackRow) toFeedback() book.Feedback {
	return book.Feedback{
		ID:             r.ID,
		Note:           r.Note,
		Comment:        r.Comment,
		BookID:         r.BookID,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		CreatedBy:      r.CreatedBy,
		LastModifiedBy: r.LastModifiedBy,
	}
}

func (store *Store) CreateFeedback(ctx context.Context, f book.Feedback) (book.Feedback, error) {
	ds := store.dialect.Insert(tableFeedbacks).Rows(goqu.Record{
		"note":             f.Note,
		"comment":          f.Comment,
		"book_id":          f.BookID,
		"created_at":       f.CreatedAt,
		"updated_at":       f.UpdatedAt,
		"created_by":       f.CreatedBy,
		"last_modified_by": f.LastModifiedBy,
	}).Returning("id").Prepared(true)

	err := store.get(ctx, store.exc, &f.ID, ds)
	if err != nil {
		return book.Feedback{}, fmt.Errorf("storing feedback on db: %w", err)
	}
	return f, nil
}

func (store *Store) ListFeedbacks(ctx context.Context, bookID int64, page, pageSize int) ([]book.Feedback, error) {
	ds := store.dialect.From(tableFeedbacks).
		Select("id", "note", "comment", "book_id", "created_at", "updated_at", "created_by", "last_modified_by").
		Where(goqu.C("book_id").Eq(bookID)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(pageSize)).
		Offset(offset(page, pageSize)).
		Prepared(true)

	var rows []feedbackRow
	err := store.selectAll(ctx, store.exc, &rows, ds)
	if err != nil {
		return nil, fmt.Errorf("listing feedbacks from db: %w", err)
	}

	feedbacks := make([]book.Feedback, 0, len(rows))
	for _, r := range rows {
		feedbacks = append(feedbacks, r.toFeedback())
	}
	return feedbacks, nil
}

func (store *Store) ListFeedbacksTotals(ctx context.Context, bookID int64) (int, error) {
	ds := store.dialect.From(tableFeedbacks).
		Select(goqu.COUNT("*")).
		Where(goqu.C("book_id").Eq(bookID)).
		Prepared(true)

	var total int
	err := store.get(ctx, store.exc, &total, ds)
	if err != nil {
		return 0, fmt.Errorf("counting feedbacks from db: %w", err)
	}
	return total, nil
}
