package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/book-network/cmd/api/book"
	"github.com/doug-martin/goqu/v9"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"

	dialectPostgres = "postgres"

	codeUniqueViolation = "23505"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.ExtContext
}

// Store implements book.Repository and user.Repository on PostgreSQL.
type Store struct {
	db      *sqlx.DB
	tx      *sqlx.Tx
	exc     DBTX
	dialect goqu.DialectWrapper
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:      db,
		exc:     db,
		dialect: goqu.Dialect(dialectPostgres),
	}
}

func (store *Store) BeginTx(ctx context.Context, opts *sql.TxOptions) (book.Repository, driver.Tx, error) {
	if store.tx != nil {
		return nil, nil, fmt.Errorf("beginning transaction: already inside one")
	}

	tx, err := store.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}

	txRepo := NewStore(store.db)
	txRepo.tx = tx
	txRepo.exc = tx
	return txRepo, tx, nil
}

/* Runs fn inside the current transaction, or inside a new one committed when fn succeeds. */
func (store *Store) inTx(ctx context.Context, fn func(exc DBTX) error) error {
	if store.tx != nil {
		return fn(store.tx)
	}

	tx, err := store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	err = fn(tx)
	if err != nil {
		return err
	}
	return tx.Commit()
}

/* Opens a pool with the given driver ("postgres" for lib/pq, "pgx" for pgx) and checks it answers. */
func ConnectDb(driverName, connStr string) (*sqlx.DB, error) {
	const maxOpenConnections = 50
	const maxIdleConnections = 10
	const maxConnLifetime = time.Hour
	const maxConnIdleTime = 5 * time.Minute

	if driverName == "" {
		driverName = DriverPQ
	}
	if driverName != DriverPQ && driverName != DriverPGX {
		return nil, fmt.Errorf("connecting to db: unknown driver %q", driverName)
	}

	db, err := sqlx.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to db, opening: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConnections)
	db.SetMaxIdleConns(maxIdleConnections)
	db.SetConnMaxLifetime(maxConnLifetime)
	db.SetConnMaxIdleTime(maxConnIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to db, pinging: %w", err)
	}

	slog.Info("connected to database", slog.String("driver", driverName))
	return db, nil
}

func newMigrate(store *Store, path string) (*migrate.Migrate, error) {
	drv, err := postgres.WithInstance(store.db.DB, &postgres.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", path), "postgres", drv)
}

/* Applies every pending migration. migrate.ErrNoChange is returned wrapped when there is none. */
func MigrationUp(store *Store, path string) error {
	m, err := newMigrate(store, path)
	if err != nil {
		return fmt.Errorf("migrating up: %w", err)
	}

	err = m.Up()
	if err != nil {
		return fmt.Errorf("migrating up: %w", err)
	}
	return nil
}

func MigrationDown(store *Store, path string) error {
	m, err := newMigrate(store, path)
	if err != nil {
		return fmt.Errorf("migrating down: %w", err)
	}

	err = m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating down: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return false
}

/* Builds the statement and runs it, scanning a single row into dest. */
func (store *Store) get(ctx context.Context, exc DBTX, dest interface{}, ds interface{ ToSQL() (string, []interface{}, error) }) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	return sqlx.GetContext(ctx, exc, dest, query, args...)
}

func (store *Store) selectAll(ctx context.Context, exc DBTX, dest interface{}, ds interface{ ToSQL() (string, []interface{}, error) }) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	return sqlx.SelectContext(ctx, exc, dest, query, args...)
}

/* Runs the statement and returns how many rows it touched. */
func (store *Store) exec(ctx context.Context, exc DBTX, ds interface{ ToSQL() (string, []interface{}, error) }) (int64, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building query: %w", err)
	}
	result, err := exc.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func offset(page, pageSize int) uint {
	if page < 0 || pageSize <= 0 {
		return 0
	}
	return uint(page * pageSize)
}
