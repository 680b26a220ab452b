package user

import (
	"net/mail"
	"strings"
	"time"
)

const RoleUser = "USER"
const RoleAdmin = "ADMIN"

var DefaultRoles = []string{RoleUser, RoleAdmin}

type User struct {
	ID            int64
	FirstName     string
	LastName      string
	DateOfBirth   *time.Time
	Email         string
	Password      string
	AccountLocked bool
	Enabled       bool
	Roles         []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type Role struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Token is a one time activation code sent to a freshly registered user.
type Token struct {
	ID          int64
	Token       string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	ValidatedAt *time.Time
	UserID      int64
}

type RegistrationRequest struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	DateOfBirth *time.Time
}

func (r RegistrationRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return ErrResponseRegistrationBlankFirstName
	}
	if strings.TrimSpace(r.LastName) == "" {
		return ErrResponseRegistrationBlankLastName
	}
	addr, err := mail.ParseAddress(r.Email)
	if err != nil || addr.Address != strings.TrimSpace(r.Email) {
		return ErrResponseRegistrationInvalidEmail
	}
	if len(r.Password) < 8 {
		return ErrResponseRegistrationShortPassword
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func timestamp() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
