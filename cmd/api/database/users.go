package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-network/cmd/api/user"
	"github.com/doug-martin/goqu/v9"
)

const (
	tableUsers     = "users"
	tableRoles     = "roles"
	tableUserRoles = "users_roles"
	tableTokens    = "tokens"
)

type userRow struct {
	ID            int64      `db:"id"`
	FirstName     string     `db:"firstname"`
	LastName      string     `db:"lastname"`
	DateOfBirth   *time.Time `db:"date_of_birth"`
	Email         string     `db:"email"`
	Password      string     `db:"password"`
	AccountLocked bool       `db:"account_locked"`
	Enabled       bool       `db:"enabled"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r userRow) toUser(roles []string) user.User {
	return user.User{
		ID:            r.ID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		DateOfBirth:   r.DateOfBirth,
		Email:         r.Email,
		Password:      r.Password,
		AccountLocked: r.AccountLocked,
		Enabled:       r.Enabled,
		Roles:         roles,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

var userColumns = []interface{}{"id", "firstname", "lastname", "date_of_birth", "email", "password", "account_locked", "enabled", "created_at", "updated_at"}

/* Stores the user and links it to its roles in one transaction. */
func (store *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	err := store.inTx(ctx, func(exc DBTX) error {
		ds := store.dialect.Insert(tableUsers).Rows(goqu.Record{
			"firstname":      u.FirstName,
			"lastname":       u.LastName,
			"date_of_birth":  u.DateOfBirth,
			"email":          strings.ToLower(u.Email),
			"password":       u.Password,
			"account_locked": u.AccountLocked,
			"enabled":        u.Enabled,
			"created_at":     u.CreatedAt,
			"updated_at":     u.UpdatedAt,
		}).Returning("id").Prepared(true)

		err := store.get(ctx, exc, &u.ID, ds)
		if isUniqueViolation(err) {
			return user.ErrResponseEmailTaken
		}
		if err != nil {
			return err
		}
		return store.linkRoles(ctx, exc, u.ID, u.Roles)
	})
	if errors.Is(err, user.ErrResponseEmailTaken) {
		return user.User{}, err
	}
	if err != nil {
		return user.User{}, fmt.Errorf("storing user on db: %w", err)
	}
	return u, nil
}

func (store *Store) linkRoles(ctx context.Context, exc DBTX, userID int64, roles []string) error {
	if len(roles) == 0 {
		return nil
	}

	ds := store.dialect.Insert(tableUserRoles).
		Cols("users_id", "roles_id").
		FromQuery(store.dialect.From(tableRoles).
			Select(goqu.V(userID), goqu.C("id")).
			Where(goqu.C("name").In(roles))).
		Prepared(true)

	affected, err := store.exec(ctx, exc, ds)
	if err != nil {
		return fmt.Errorf("linking roles: %w", err)
	}
	if int(affected) != len(roles) {
		return fmt.Errorf("linking roles %v: %w", roles, user.ErrResponseRoleNotFound)
	}
	return nil
}

func (store *Store) rolesOf(ctx context.Context, userID int64) ([]string, error) {
	ds := store.dialect.From(goqu.T(tableRoles).As("r")).
		InnerJoin(goqu.T(tableUserRoles).As("ur"), goqu.On(goqu.I("ur.roles_id").Eq(goqu.I("r.id")))).
		Select(goqu.I("r.name")).
		Where(goqu.I("ur.users_id").Eq(userID)).
		Order(goqu.I("r.name").Asc()).
		Prepared(true)

	roles := []string{}
	err := store.selectAll(ctx, store.exc, &roles, ds)
	if err != nil {
		return nil, fmt.Errorf("listing roles of user: %w", err)
	}
	return roles, nil
}

func (store *Store) GetUserByID(ctx context.Context, id int64) (user.User, error) {
	return store.firstUser(ctx, goqu.C("id").Eq(id))
}

func (store *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return store.firstUser(ctx, goqu.C("email").Eq(strings.ToLower(email)))
}

func (store *Store) firstUser(ctx context.Context, where goqu.Expression) (user.User, error) {
	ds := store.dialect.From(tableUsers).Select(userColumns...).Where(where).Prepared(true)

	var row userRow
	err := store.get(ctx, store.exc, &row, ds)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrResponseUserNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("searching user: %w", err)
	}

	roles, err := store.rolesOf(ctx, row.ID)
	if err != nil {
		return user.User{}, err
	}
	return row.toUser(roles), nil
}

/* Rewrites the user columns and replaces its role links. */
func (store *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	err := store.inTx(ctx, func(exc DBTX) error {
		ds := store.dialect.Update(tableUsers).Set(goqu.Record{
			"firstname":      u.FirstName,
			"lastname":       u.LastName,
			"date_of_birth":  u.DateOfBirth,
			"password":       u.Password,
			"account_locked": u.AccountLocked,
			"enabled":        u.Enabled,
			"updated_at":     u.UpdatedAt,
		}).Where(goqu.C("id").Eq(u.ID)).Prepared(true)

		affected, err := store.exec(ctx, exc, ds)
		if err != nil {
			return err
		}
		if affected == 0 {
			return user.ErrResponseUserNotFound
		}

		_, err = store.exec(ctx, exc, store.dialect.Delete(tableUserRoles).Where(goqu.C("users_id").Eq(u.ID)).Prepared(true))
		if err != nil {
			return err
		}
		return store.linkRoles(ctx, exc, u.ID, u.Roles)
	})
	if errors.Is(err, user.ErrResponseUserNotFound) {
		return user.User{}, err
	}
	if err != nil {
		return user.User{}, fmt.Errorf("updating user on db: %w", err)
	}
	return store.GetUserByID(ctx, u.ID)
}

type roleRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (store *Store) CreateRole(ctx context.Context, r user.Role) (user.Role, error) {
	ds := store.dialect.Insert(tableRoles).Rows(goqu.Record{
		"name":       r.Name,
		"created_at": r.CreatedAt,
		"updated_at": r.UpdatedAt,
	}).Returning("id").Prepared(true)

	err := store.get(ctx, store.exc, &r.ID, ds)
	if err != nil {
		return user.Role{}, fmt.Errorf("storing role on db: %w", err)
	}
	return r, nil
}

func (store *Store) GetRoleByName(ctx context.Context, name string) (user.Role, error) {
	ds := store.dialect.From(tableRoles).
		Select("id", "name", "created_at", "updated_at").
		Where(goqu.C("name").Eq(name)).
		Prepared(true)

	var row roleRow
	err := store.get(ctx, store.exc, &row, ds)
	if errors.Is(err, sql.ErrNoRows) {
		return user.Role{}, user.ErrResponseRoleNotFound
	}
	if err != nil {
		return user.Role{}, fmt.Errorf("searching role: %w", err)
	}
	return user.Role{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.UTC(), UpdatedAt: row.UpdatedAt.UTC()}, nil
}

type tokenRow struct {
	ID          int64      `db:"id"`
	Token       string     `db:"token"`
	CreatedAt   time.Time  `db:"created_at"`
	ExpiresAt   time.Time  `db:"expires_at"`
	ValidatedAt *time.Time `db:"validated_at"`
	UserID      int64      `db:"user_id"`
}

func (r tokenRow) toToken() user.Token {
	return user.Token{
		ID:          r.ID,
		Token:       r.Token,
		CreatedAt:   r.CreatedAt.UTC(),
		ExpiresAt:   r.ExpiresAt.UTC(),
		ValidatedAt: r.ValidatedAt,
		UserID:      r.UserID,
	}
}

func (store *Store) CreateToken(ctx context.Context, t user.Token) (user.Token, error) {
	ds := store.dialect.Insert(tableTokens).Rows(goqu.Record{
		"token":        t.Token,
		"created_at":   t.CreatedAt,
		"expires_at":   t.ExpiresAt,
		"validated_at": t.ValidatedAt,
		"user_id":      t.UserID,
	}).Returning("id").Prepared(true)

	err := store.get(ctx, store.exc, &t.ID, ds)
	if err != nil {
		return user.Token{}, fmt.Errorf("storing token on db: %w", err)
	}
	return t, nil
}

func (store *Store) GetToken(ctx context.Context, token string) (user.Token, error) {
	ds := store.dialect.From(tableTokens).
		Select("id", "token", "created_at", "expires_at", "validated_at", "user_id").
		Where(goqu.C("token").Eq(token)).
		Prepared(true)

	var row tokenRow
	err := store.get(ctx, store.exc, &row, ds)
	if errors.Is(err, sql.ErrNoRows) {
		return user.Token{}, user.ErrResponseTokenNotFound
	}
	if err != nil {
		return user.Token{}, fmt.Errorf("searching token: %w", err)
	}
	return row.toToken(), nil
}

func (store *Store) UpdateToken(ctx context.Context, t user.Token) (user.Token, error) {
	ds := store.dialect.Update(tableTokens).
		Set(goqu.Record{"validated_at": t.ValidatedAt}).
		Where(goqu.C("id").Eq(t.ID)).
		Returning("id", "token", "created_at", "expires_at", "validated_at", "user_id").
		Prepared(true)

	var row tokenRow
	err := store.get(ctx, store.exc, &row, ds)
	if errors.Is(err, sql.ErrNoRows) {
		return user.Token{}, user.ErrResponseTokenNotFound
	}
	if err != nil {
		return user.Token{}, fmt.Errorf("updating token on db: %w", err)
	}
	return row.toToken(), nil
}
