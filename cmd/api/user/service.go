package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"
)

const activationCodeLength = 6

type ServiceAPI interface {
	Register(ctx context.Context, req RegistrationRequest) error
	ActivateAccount(ctx context.Context, code string) error
	Authenticate(ctx context.Context, email, password string) (string, error)
}

type Repository interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, u User) (User, error)

	CreateRole(ctx context.Context, r Role) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)

	CreateToken(ctx context.Context, t Token) (Token, error)
	GetToken(ctx context.Context, token string) (Token, error)
	UpdateToken(ctx context.Context, t Token) (Token, error)
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	CheckPassword(password, hash string) bool
}

type TokenIssuer interface {
	IssueAccessToken(userID int64, email, fullName string, roles []string) (string, error)
}

// Notifier delivers the activation code to the person who registered.
type Notifier interface {
	ActivationCode(ctx context.Context, u User, code string) error
}

type Service struct {
	repo          Repository
	hasher        PasswordHasher
	issuer        TokenIssuer
	notifier      Notifier
	activationTTL time.Duration
	logger        *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, issuer TokenIssuer, notifier Notifier, activationTTL time.Duration) *Service {
	return &Service{
		repo:          repo,
		hasher:        hasher,
		issuer:        issuer,
		notifier:      notifier,
		activationTTL: activationTTL,
		logger:        slog.Default(),
	}
}

func (s *Service) WithLogger(logger *slog.Logger) *Service {
	s.logger = logger
	return s
}

/* Creates the default roles that are missing. Safe to run on every start. */
func (s *Service) SeedRoles(ctx context.Context) error {
	for _, name := range DefaultRoles {
		_, err := s.repo.GetRoleByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrResponseRoleNotFound) {
			return fmt.Errorf("seeding role %s: %w", name, err)
		}

		now := timestamp()
		_, err = s.repo.CreateRole(ctx, Role{Name: name, CreatedAt: now, UpdatedAt: now})
		if err != nil {
			return fmt.Errorf("seeding role %s: %w", name, err)
		}
		s.logger.Info("role created", slog.String("role", name))
	}
	return nil
}

/* Stores a disabled account with the USER role and sends it an activation code. */
func (s *Service) Register(ctx context.Context, req RegistrationRequest) error {
	err := req.Validate()
	if err != nil {
		return err
	}

	email := normalizeEmail(req.Email)
	_, err = s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return ErrResponseEmailTaken
	}
	if !errors.Is(err, ErrResponseUserNotFound) {
		return fmt.Errorf("registering: %w", err)
	}

	_, err = s.repo.GetRoleByName(ctx, RoleUser)
	if err != nil {
		return fmt.Errorf("registering, role %s was not initialized: %w", RoleUser, err)
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("registering, hashing password: %w", err)
	}

	now := timestamp()
	u, err := s.repo.CreateUser(ctx, User{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		DateOfBirth:   req.DateOfBirth,
		Email:         email,
		Password:      hash,
		AccountLocked: false,
		Enabled:       false,
		Roles:         []string{RoleUser},
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return fmt.Errorf("registering: %w", err)
	}

	return s.sendActivationCode(ctx, u)
}

func (s *Service) ActivateAccount(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrResponseActivationTokenBlank
	}

	t, err := s.repo.GetToken(ctx, code)
	if err != nil {
		return fmt.Errorf("activating account: %w", err)
	}
	if t.ValidatedAt != nil {
		return ErrResponseActivationTokenUsed
	}

	u, err := s.repo.GetUserByID(ctx, t.UserID)
	if err != nil {
		return fmt.Errorf("activating account: %w", err)
	}

	now := timestamp()
	if now.After(t.ExpiresAt) {
		err = s.sendActivationCode(ctx, u)
		if err != nil {
			return err
		}
		return ErrResponseActivationTokenExpired
	}

	u.Enabled = true
	u.UpdatedAt = now
	_, err = s.repo.UpdateUser(ctx, u)
	if err != nil {
		return fmt.Errorf("activating account: %w", err)
	}

	t.ValidatedAt = &now
	_, err = s.repo.UpdateToken(ctx, t)
	if err != nil {
		return fmt.Errorf("activating account: %w", err)
	}
	return nil
}

/* Checks the credentials and returns a signed access token for the user. */
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrResponseUserNotFound) {
		return "", ErrResponseBadCredentials
	}
	if err != nil {
		return "", fmt.Errorf("authenticating: %w", err)
	}

	if !s.hasher.CheckPassword(password, u.Password) {
		return "", ErrResponseBadCredentials
	}
	if u.AccountLocked {
		return "", ErrResponseAccountLocked
	}
	if !u.Enabled {
		return "", ErrResponseAccountDisabled
	}

	token, err := s.issuer.IssueAccessToken(u.ID, u.Email, u.FullName(), u.Roles)
	if err != nil {
		return "", fmt.Errorf("authenticating, issuing token: %w", err)
	}
	return token, nil
}

func (s *Service) sendActivationCode(ctx context.Context, u User) error {
	code, err := generateActivationCode(activationCodeLength)
	if err != nil {
		return fmt.Errorf("generating activation code: %w", err)
	}

	now := timestamp()
	_, err = s.repo.CreateToken(ctx, Token{
		Token:     code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.activationTTL),
		UserID:    u.ID,
	})
	if err != nil {
		return fmt.Errorf("storing activation code: %w", err)
	}

	if s.notifier == nil {
		return nil
	}
	err = s.notifier.ActivationCode(ctx, u, code)
	if err != nil {
		return fmt.Errorf("sending activation code: %w", err)
	}
	return nil
}

func generateActivationCode(length int) (string, error) {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteString(n.String())
	}
	return sb.String(), nil
}
