package inmemory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/book-network/cmd/api/book"
	"github.com/book-network/cmd/api/user"
	"github.com/hashicorp/go-memdb"
)

const (
	tableBook     = "book"
	tableLoan     = "loan"
	tableFeedback = "feedback"
	tableUser     = "user"
	tableRole     = "role"
	tableToken    = "token"
)

// InMemoryStore implements book.Repository and user.Repository on top of go-memdb.
// A store returned by BeginTx runs every call inside the same write transaction.
type InMemoryStore struct {
	db  *memdb.MemDB
	seq *sequences
	exc *memdb.Txn
}

type sequences struct {
	mu   sync.Mutex
	next map[string]int64
}

func (s *sequences) nextID(table string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[table]++
	return s.next[table]
}

func idIndex() *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:    "id",
		Unique:  true,
		Indexer: &memdb.IntFieldIndex{Field: "ID"},
	}
}

func NewInMemoryStore() (*InMemoryStore, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableBook: {
				Name: tableBook,
				Indexes: map[string]*memdb.IndexSchema{
					"id": idIndex(),
					"owner_id": {
						Name:    "owner_id",
						Indexer: &memdb.IntFieldIndex{Field: "OwnerID"},
					},
				},
			},
			tableLoan: {
				Name: tableLoan,
				Indexes: map[string]*memdb.IndexSchema{
					"id": idIndex(),
					"book_id": {
						Name:    "book_id",
						Indexer: &memdb.IntFieldIndex{Field: "BookID"},
					},
				},
			},
			tableFeedback: {
				Name: tableFeedback,
				Indexes: map[string]*memdb.IndexSchema{
					"id": idIndex(),
					"book_id": {
						Name:    "book_id",
						Indexer: &memdb.IntFieldIndex{Field: "BookID"},
					},
				},
			},
			tableUser: {
				Name: tableUser,
				Indexes: map[string]*memdb.IndexSchema{
					"id": idIndex(),
					"email": {
						Name:    "email",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
					},
				},
			},
			tableRole: {
				Name: tableRole,
				Indexes: map[string]*memdb.IndexSchema{
					"id": idIndex(),
					"name": {
						Name:    "name",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Name"},
					},
				},
			},
			tableToken: {
				Name: tableToken,
				Indexes: map[string]*memdb.IndexSchema{
					"id": idIndex(),
					"token": {
						Name:    "token",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Token"},
					},
				},
			},
		},
	}

	err := schema.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating in-memory schema: %w", err)
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize in-memory database: %w", err)
	}
	return &InMemoryStore{db: db, seq: &sequences{next: map[string]int64{}}}, nil
}

/* Returns the transaction a call runs in. Outside BeginTx every call gets its own. */
func (store *InMemoryStore) txn(write bool) *memdb.Txn {
	if store.exc != nil {
		return store.exc
	}
	return store.db.Txn(write)
}

/* Commits txn unless it belongs to a larger transaction, which commits on its own. */
func (store *InMemoryStore) commit(txn *memdb.Txn) {
	if store.exc == nil {
		txn.Commit()
	}
}

/* Aborts txn unless it belongs to a larger transaction. Aborting after a commit is a no-op. */
func (store *InMemoryStore) end(txn *memdb.Txn) {
	if store.exc == nil {
		txn.Abort()
	}
}

// -- Books --

func (store *InMemoryStore) CreateBook(ctx context.Context, b book.Book) (book.Book, error) {
	txn := store.txn(true)
	defer store.end(txn)

	b.ID = store.seq.nextID(tableBook)
	b.OwnerName = ""
	err := txn.Insert(tableBook, b)
	if err != nil {
		return book.Book{}, fmt.Errorf("storing book on db: %w", err)
	}
	b.OwnerName = ownerName(txn, b.OwnerID)

	store.commit(txn)
	return b, nil
}

func (store *InMemoryStore) GetBookByID(ctx context.Context, id int64) (book.Book, error) {
	txn := store.txn(false)
	defer store.end(txn)

	b, err := getBook(txn, id)
	if err != nil {
		return book.Book{}, fmt.Errorf("searching book by ID: %w", err)
	}
	b.OwnerName = ownerName(txn, b.OwnerID)
	return b, nil
}

func getBook(txn *memdb.Txn, id int64) (book.Book, error) {
	raw, err := txn.First(tableBook, "id", id)
	if err != nil {
		return book.Book{}, err
	}
	if raw == nil {
		return book.Book{}, book.ErrResponseBookNotFound
	}
	return raw.(book.Book), nil
}

func ownerName(txn *memdb.Txn, ownerID int64) string {
	raw, err := txn.First(tableUser, "id", ownerID)
	if err != nil || raw == nil {
		return ""
	}
	return raw.(user.User).FullName()
}

/* Only the mutable columns change: title, author, isbn, synopsis, cover, flags and audit fields. */
func (store *InMemoryStore) UpdateBook(ctx context.Context, b book.Book) (book.Book, error) {
	txn := store.txn(true)
	defer store.end(txn)

	current, err := getBook(txn, b.ID)
	if err != nil {
		return book.Book{}, fmt.Errorf("updating book on db: %w", err)
	}

	current.Title = b.Title
	current.AuthorName = b.AuthorName
	current.ISBN = b.ISBN
	current.Synopsis = b.Synopsis
	current.Cover = b.Cover
	current.Archived = b.Archived
	current.Shareable = b.Shareable
	current.UpdatedAt = b.UpdatedAt
	current.LastModifiedBy = b.LastModifiedBy

	err = txn.Insert(tableBook, current)
	if err != nil {
		return book.Book{}, fmt.Errorf("updating book on db: %w", err)
	}
	current.OwnerName = ownerName(txn, current.OwnerID)

	store.commit(txn)
	return current, nil
}

func (store *InMemoryStore) AddBookRating(ctx context.Context, bookID int64, note float64) error {
	txn := store.txn(true)
	defer store.end(txn)

	b, err := getBook(txn, bookID)
	if err != nil {
		return fmt.Errorf("rating book on db: %w", err)
	}

	b.RateSum += note
	b.RateCount++
	err = txn.Insert(tableBook, b)
	if err != nil {
		return fmt.Errorf("rating book on db: %w", err)
	}

	store.commit(txn)
	return nil
}

func (store *InMemoryStore) ListBooks(ctx context.Context, filter book.BookFilter, page, pageSize int) ([]book.Book, error) {
	txn := store.txn(false)
	defer store.end(txn)

	books, err := filterBooks(txn, filter)
	if err != nil {
		return nil, fmt.Errorf("listing books from db: %w", err)
	}

	sort.Slice(books, func(i, j int) bool {
		return newerFirst(books[i].CreatedAt.UnixNano(), books[i].ID, books[j].CreatedAt.UnixNano(), books[j].ID)
	})
	books = paginate(books, page, pageSize)
	for i := range books {
		books[i].OwnerName = ownerName(txn, books[i].OwnerID)
	}
	return books, nil
}

func (store *InMemoryStore) ListBooksTotals(ctx context.Context, filter book.BookFilter) (int, error) {
	txn := store.txn(false)
	defer store.end(txn)

	books, err := filterBooks(txn, filter)
	if err != nil {
		return 0, fmt.Errorf("counting books from db: %w", err)
	}
	return len(books), nil
}

func filterBooks(txn *memdb.Txn, filter book.BookFilter) ([]book.Book, error) {
	var it memdb.ResultIterator
	var err error
	if filter.OwnerID != 0 {
		it, err = txn.Get(tableBook, "owner_id", filter.OwnerID)
	} else {
		it, err = txn.Get(tableBook, "id")
	}
	if err != nil {
		return nil, err
	}

	books := []book.Book{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		b := obj.(book.Book)
		if filter.Match(b) {
			books = append(books, b)
		}
	}
	return books, nil
}

// -- Loans --

/* Refuses a second unreturned loan of the same book by the same user. */
func (store *InMemoryStore) CreateLoan(ctx context.Context, l book.Loan) (book.Loan, error) {
	txn := store.txn(true)
	defer store.end(txn)

	it, err := txn.Get(tableLoan, "book_id", l.BookID)
	if err != nil {
		return book.Loan{}, fmt.Errorf("storing loan on db: %w", err)
	}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		existing := obj.(book.Loan)
		if existing.UserID == l.UserID && !existing.Returned {
			return book.Loan{}, book.ErrResponseBookAlreadyBorrowed
		}
	}

	l.ID = store.seq.nextID(tableLoan)
	err = txn.Insert(tableLoan, l)
	if err != nil {
		return book.Loan{}, fmt.Errorf("storing loan on db: %w", err)
	}

	store.commit(txn)
	return l, nil
}

/* Returns the most recent loan passing the filter. */
func (store *InMemoryStore) FindLoan(ctx context.Context, filter book.LoanFilter) (book.Loan, error) {
	txn := store.txn(false)
	defer store.end(txn)

	loans, _, err := filterLoans(txn, filter)
	if err != nil {
		return book.Loan{}, fmt.Errorf("searching loan: %w", err)
	}
	if len(loans) == 0 {
		return book.Loan{}, book.ErrResponseLoanNotFound
	}

	sortLoans(loans)
	return loans[0], nil
}

func (store *InMemoryStore) UpdateLoan(ctx context.Context, l book.Loan) (book.Loan, error) {
	txn := store.txn(true)
	defer store.end(txn)

	raw, err := txn.First(tableLoan, "id", l.ID)
	if err != nil {
		return book.Loan{}, fmt.Errorf("updating loan on db: %w", err)
	}
	if raw == nil {
		return book.Loan{}, fmt.Errorf("updating loan on db: %w", book.ErrResponseLoanNotFound)
	}

	current := raw.(book.Loan)
	current.Returned = l.Returned
	current.ReturnApproved = l.ReturnApproved
	current.UpdatedAt = l.UpdatedAt
	current.LastModifiedBy = l.LastModifiedBy

	err = txn.Insert(tableLoan, current)
	if err != nil {
		return book.Loan{}, fmt.Errorf("updating loan on db: %w", err)
	}

	store.commit(txn)
	return current, nil
}

func (store *InMemoryStore) ListBorrowedBooks(ctx context.Context, filter book.LoanFilter, page, pageSize int) ([]book.BorrowedBook, error) {
	txn := store.txn(false)
	defer store.end(txn)

	loans, books, err := filterLoans(txn, filter)
	if err != nil {
		return nil, fmt.Errorf("listing borrowed books from db: %w", err)
	}

	sortLoans(loans)
	loans = paginate(loans, page, pageSize)

	borrowed := make([]book.BorrowedBook, 0, len(loans))
	for _, l := range loans {
		b := books[l.BookID]
		borrowed = append(borrowed, book.BorrowedBook{
			LoanID:         l.ID,
			BookID:         b.ID,
			Title:          b.Title,
			AuthorName:     b.AuthorName,
			ISBN:           b.ISBN,
			Rate:           b.Rate(),
			Returned:       l.Returned,
			ReturnApproved: l.ReturnApproved,
			CreatedAt:      l.CreatedAt,
		})
	}
	return borrowed, nil
}

func (store *InMemoryStore) ListBorrowedBooksTotals(ctx context.Context, filter book.LoanFilter) (int, error) {
	txn := store.txn(false)
	defer store.end(txn)

	loans, _, err := filterLoans(txn, filter)
	if err != nil {
		return 0, fmt.Errorf("counting borrowed books from db: %w", err)
	}
	return len(loans), nil
}

/* Returns the matching loans together with the books they refer to, keyed by book id. */
func filterLoans(txn *memdb.Txn, filter book.LoanFilter) ([]book.Loan, map[int64]book.Book, error) {
	var it memdb.ResultIterator
	var err error
	if filter.BookID != 0 {
		it, err = txn.Get(tableLoan, "book_id", filter.BookID)
	} else {
		it, err = txn.Get(tableLoan, "id")
	}
	if err != nil {
		return nil, nil, err
	}

	loans := []book.Loan{}
	books := map[int64]book.Book{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		l := obj.(book.Loan)
		b, ok := books[l.BookID]
		if !ok {
			b, err = getBook(txn, l.BookID)
			if err != nil {
				return nil, nil, fmt.Errorf("loan %d: %w", l.ID, err)
			}
			books[l.BookID] = b
		}
		if filter.Match(l, b.OwnerID) {
			loans = append(loans, l)
		}
	}
	return loans, books, nil
}

func sortLoans(loans []book.Loan) {
	sort.Slice(loans, func(i, j int) bool {
		return newerFirst(loans[i].CreatedAt.UnixNano(), loans[i].ID, loans[j].CreatedAt.UnixNano(), loans[j].ID)
	})
}

// -- Feedbacks --

func (store *InMemoryStore) CreateFeedback(ctx context.Context, f book.Feedback) (book.Feedback, error) {
	txn := store.txn(true)
	defer store.end(txn)

	f.ID = store.seq.nextID(tableFeedback)
	err := txn.Insert(tableFeedback, f)
	if err != nil {
		return book.Feedback{}, fmt.Errorf("storing feedback on db: %w", err)
	}

	store.commit(txn)
	return f, nil
}

func (store *InMemoryStore) ListFeedbacks(ctx context.Context, bookID int64, page, pageSize int) ([]book.Feedback, error) {
	txn := store.txn(false)
	defer store.end(txn)

	feedbacks, err := feedbacksOf(txn, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing feedbacks from db: %w", err)
	}

	sort.Slice(feedbacks, func(i, j int) bool {
		return newerFirst(feedbacks[i].CreatedAt.UnixNano(), feedbacks[i].ID, feedbacks[j].CreatedAt.UnixNano(), feedbacks[j].ID)
	})
	return paginate(feedbacks, page, pageSize), nil
}

func (store *InMemoryStore) ListFeedbacksTotals(ctx context.Context, bookID int64) (int, error) {
	txn := store.txn(false)
	defer store.end(txn)

	feedbacks, err := feedbacksOf(txn, bookID)
	if err != nil {
		return 0, fmt.Errorf("counting feedbacks from db: %w", err)
	}
	return len(feedbacks), nil
}

func feedbacksOf(txn *memdb.Txn, bookID int64) ([]book.Feedback, error) {
	it, err := txn.Get(tableFeedback, "book_id", bookID)
	if err != nil {
		return nil, err
	}

	feedbacks := []book.Feedback{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		feedbacks = append(feedbacks, obj.(book.Feedback))
	}
	return feedbacks, nil
}

// -- Users --

func (store *InMemoryStore) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	txn := store.txn(true)
	defer store.end(txn)

	existing, err := txn.First(tableUser, "email", u.Email)
	if err != nil {
		return user.User{}, fmt.Errorf("storing user on db: %w", err)
	}
	if existing != nil {
		return user.User{}, user.ErrResponseEmailTaken
	}

	u.ID = store.seq.nextID(tableUser)
	u.Roles = cloneRoles(u.Roles)
	err = txn.Insert(tableUser, u)
	if err != nil {
		return user.User{}, fmt.Errorf("storing user on db: %w", err)
	}

	store.commit(txn)
	return u, nil
}

func (store *InMemoryStore) GetUserByID(ctx context.Context, id int64) (user.User, error) {
	return store.firstUser("id", id)
}

func (store *InMemoryStore) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return store.firstUser("email", strings.ToLower(email))
}

func (store *InMemoryStore) firstUser(index string, arg interface{}) (user.User, error) {
	txn := store.txn(false)
	defer store.end(txn)

	raw, err := txn.First(tableUser, index, arg)
	if err != nil {
		return user.User{}, fmt.Errorf("searching user by %s: %w", index, err)
	}
	if raw == nil {
		return user.User{}, user.ErrResponseUserNotFound
	}

	u := raw.(user.User)
	u.Roles = cloneRoles(u.Roles)
	return u, nil
}

func (store *InMemoryStore) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	txn := store.txn(true)
	defer store.end(txn)

	raw, err := txn.First(tableUser, "id", u.ID)
	if err != nil {
		return user.User{}, fmt.Errorf("updating user on db: %w", err)
	}
	if raw == nil {
		return user.User{}, user.ErrResponseUserNotFound
	}

	current := raw.(user.User)
	current.FirstName = u.FirstName
	current.LastName = u.LastName
	current.DateOfBirth = u.DateOfBirth
	current.Password = u.Password
	current.AccountLocked = u.AccountLocked
	current.Enabled = u.Enabled
	current.Roles = cloneRoles(u.Roles)
	current.UpdatedAt = u.UpdatedAt

	err = txn.Insert(tableUser, current)
	if err != nil {
		return user.User{}, fmt.Errorf("updating user on db: %w", err)
	}

	store.commit(txn)
	return current, nil
}

func cloneRoles(roles []string) []string {
	if roles == nil {
		return nil
	}
	return append([]string{}, roles...)
}

func (store *InMemoryStore) CreateRole(ctx context.Context, r user.Role) (user.Role, error) {
	txn := store.txn(true)
	defer store.end(txn)

	r.ID = store.seq.nextID(tableRole)
	err := txn.Insert(tableRole, r)
	if err != nil {
		return user.Role{}, fmt.Errorf("storing role on db: %w", err)
	}

	store.commit(txn)
	return r, nil
}

func (store *InMemoryStore) GetRoleByName(ctx context.Context, name string) (user.Role, error) {
	txn := store.txn(false)
	defer store.end(txn)

	raw, err := txn.First(tableRole, "name", name)
	if err != nil {
		return user.Role{}, fmt.Errorf("searching role: %w", err)
	}
	if raw == nil {
		return user.Role{}, user.ErrResponseRoleNotFound
	}
	return raw.(user.Role), nil
}

func (store *InMemoryStore) CreateToken(ctx context.Context, t user.Token) (user.Token, error) {
	txn := store.txn(true)
	defer store.end(txn)

	t.ID = store.seq.nextID(tableToken)
	err := txn.Insert(tableToken, t)
	if err != nil {
		return user.Token{}, fmt.Errorf("storing token on db: %w", err)
	}

	store.commit(txn)
	return t, nil
}

func (store *InMemoryStore) GetToken(ctx context.Context, token string) (user.Token, error) {
	txn := store.txn(false)
	defer store.end(txn)

	raw, err := txn.First(tableToken, "token", token)
	if err != nil {
		return user.Token{}, fmt.Errorf("searching token: %w", err)
	}
	if raw == nil {
		return user.Token{}, user.ErrResponseTokenNotFound
	}
	return raw.(user.Token), nil
}

func (store *InMemoryStore) UpdateToken(ctx context.Context, t user.Token) (user.Token, error) {
	txn := store.txn(true)
	defer store.end(txn)

	raw, err := txn.First(tableToken, "id", t.ID)
	if err != nil {
		return user.Token{}, fmt.Errorf("updating token on db: %w", err)
	}
	if raw == nil {
		return user.Token{}, user.ErrResponseTokenNotFound
	}

	current := raw.(user.Token)
	current.ValidatedAt = t.ValidatedAt
	err = txn.Insert(tableToken, current)
	if err != nil {
		return user.Token{}, fmt.Errorf("updating token on db: %w", err)
	}

	store.commit(txn)
	return current, nil
}

// -- Helpers --

func newerFirst(createdI, idI, createdJ, idJ int64) bool {
	if createdI != createdJ {
		return createdI > createdJ
	}
	return idI > idJ
}

/* Cuts the zero-based page out of rows, returning an empty slice past the end. */
func paginate[T any](rows []T, page, pageSize int) []T {
	start := page * pageSize
	if start >= len(rows) || pageSize <= 0 || page < 0 {
		return []T{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// -- Transactions --

/* memdb has no isolation levels; its single writer already serializes write transactions. */
func (store *InMemoryStore) BeginTx(ctx context.Context, opts *sql.TxOptions) (book.Repository, driver.Tx, error) {
	if store.exc != nil {
		return nil, nil, fmt.Errorf("nested transactions are not supported")
	}

	txn := store.db.Txn(true)
	txStore := &InMemoryStore{
		db:  store.db,
		seq: store.seq,
		exc: txn,
	}
	return txStore, &TxWrapper{txn: txn}, nil
}

type TxWrapper struct {
	txn *memdb.Txn
}

func (tx *TxWrapper) Commit() error {
	tx.txn.Commit()
	return nil
}

func (tx *TxWrapper) Rollback() error {
	tx.txn.Abort()
	return nil
}
