package user_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/book-network/cmd/api/inmemory"
	"github.com/book-network/cmd/api/user"
	usermock "github.com/book-network/cmd/api/user/mocks"
	"github.com/matryer/is"
	gomock "go.uber.org/mock/gomock"
)

var ctx context.Context = context.Background()

const activationTTL = 15 * time.Minute

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func validRegistration() user.RegistrationRequest {
	return user.RegistrationRequest{
		FirstName: "Carla",
		LastName:  "Souza",
		Email:     " Carla@Mail.com ",
		Password:  "password123",
	}
}

type fixture struct {
	svc      *user.Service
	store    *inmemory.InMemoryStore
	hasher   *usermock.MockPasswordHasher
	issuer   *usermock.MockTokenIssuer
	notifier *usermock.MockNotifier
	codes    []string
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	store, err := inmemory.NewInMemoryStore()
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		store:    store,
		hasher:   usermock.NewMockPasswordHasher(ctrl),
		issuer:   usermock.NewMockTokenIssuer(ctrl),
		notifier: usermock.NewMockNotifier(ctrl),
	}
	f.svc = user.NewService(store, f.hasher, f.issuer, f.notifier, activationTTL)
	f.hasher.EXPECT().HashPassword(gomock.Any()).DoAndReturn(func(p string) (string, error) {
		return "hashed:" + p, nil
	}).AnyTimes()
	f.hasher.EXPECT().CheckPassword(gomock.Any(), gomock.Any()).DoAndReturn(func(p, hash string) bool {
		return hash == "hashed:"+p
	}).AnyTimes()
	f.notifier.EXPECT().ActivationCode(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, u user.User, code string) error {
		f.codes = append(f.codes, code)
		return nil
	}).AnyTimes()

	err = f.svc.SeedRoles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestSeedRoles(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)

	is.NoErr(f.svc.SeedRoles(ctx))
	for _, name := range user.DefaultRoles {
		_, err := f.store.GetRoleByName(ctx, name)
		is.NoErr(err)
	}
}

func TestRegister(t *testing.T) {
	t.Run("stores a disabled user and sends a six digit code", func(t *testing.T) {
		is := is.New(t)
		f := newFixture(t)

		is.NoErr(f.svc.Register(ctx, validRegistration()))

		u, err := f.store.GetUserByEmail(ctx, "carla@mail.com")
		is.NoErr(err)
		is.Equal(u.Email, "carla@mail.com")
		is.Equal(u.Password, "hashed:password123")
		is.True(!u.Enabled)
		is.Equal(u.Roles, []string{user.RoleUser})

		is.Equal(len(f.codes), 1)
		is.True(sixDigits.MatchString(f.codes[0]))
		tok, err := f.store.GetToken(ctx, f.codes[0])
		is.NoErr(err)
		is.Equal(tok.UserID, u.ID)
		is.True(tok.ExpiresAt.Sub(tok.CreatedAt) == activationTTL)
	})

	t.Run("an email is registered only once", func(t *testing.T) {
		is := is.New(t)
		f := newFixture(t)

		is.NoErr(f.svc.Register(ctx, validRegistration()))
		err := f.svc.Register(ctx, validRegistration())
		is.True(errors.Is(err, user.ErrResponseEmailTaken))
	})

	t.Run("invalid requests", func(t *testing.T) {
		f := newFixture(t)
		tests := []struct {
			name   string
			change func(r *user.RegistrationRequest)
			want   error
		}{
			{"first name", func(r *user.RegistrationRequest) { r.FirstName = "" }, user.ErrResponseRegistrationBlankFirstName},
			{"last name", func(r *user.RegistrationRequest) { r.LastName = " " }, user.ErrResponseRegistrationBlankLastName},
			{"email", func(r *user.RegistrationRequest) { r.Email = "not-an-email" }, user.ErrResponseRegistrationInvalidEmail},
			{"named email", func(r *user.RegistrationRequest) { r.Email = "Carla <carla@mail.com>" }, user.ErrResponseRegistrationInvalidEmail},
			{"password", func(r *user.RegistrationRequest) { r.Password = "short" }, user.ErrResponseRegistrationShortPassword},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				is := is.New(t)
				req := validRegistration()
				tt.change(&req)

				err := f.svc.Register(ctx, req)
				is.True(errors.Is(err, tt.want))
			})
		}
	})
}

func TestActivateAccount(t *testing.T) {
	t.Run("enables the account once", func(t *testing.T) {
		is := is.New(t)
		f := newFixture(t)
		is.NoErr(f.svc.Register(ctx, validRegistration()))

		is.NoErr(f.svc.ActivateAccount(ctx, f.codes[0]))
		u, err := f.store.GetUserByEmail(ctx, "carla@mail.com")
		is.NoErr(err)
		is.True(u.Enabled)

		err = f.svc.ActivateAccount(ctx, f.codes[0])
		is.True(errors.Is(err, user.ErrResponseActivationTokenUsed))
	})

	t.Run("an expired code sends a new one", func(t *testing.T) {
		is := is.New(t)
		f := newFixture(t)
		is.NoErr(f.svc.Register(ctx, validRegistration()))

		tok, err := f.store.GetToken(ctx, f.codes[0])
		is.NoErr(err)
		expired := tok
		expired.ID = 0
		expired.Token = "999999"
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		_, err = f.store.CreateToken(ctx, expired)
		is.NoErr(err)

		err = f.svc.ActivateAccount(ctx, "999999")
		is.True(errors.Is(err, user.ErrResponseActivationTokenExpired))
		is.Equal(len(f.codes), 2)
	})

	t.Run("unknown and blank codes", func(t *testing.T) {
		is := is.New(t)
		f := newFixture(t)

		err := f.svc.ActivateAccount(ctx, "")
		is.True(errors.Is(err, user.ErrResponseActivationTokenBlank))
		err = f.svc.ActivateAccount(ctx, "000000")
		is.True(errors.Is(err, user.ErrResponseTokenNotFound))
	})
}

func TestAuthenticate(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	is.NoErr(f.svc.Register(ctx, validRegistration()))

	t.Run("a disabled account cannot log in", func(t *testing.T) {
		is := is.New(t)

		_, err := f.svc.Authenticate(ctx, "carla@mail.com", "password123")
		is.True(errors.Is(err, user.ErrResponseAccountDisabled))
	})

	t.Run("wrong credentials", func(t *testing.T) {
		is := is.New(t)

		_, err := f.svc.Authenticate(ctx, "carla@mail.com", "wrong-password")
		is.True(errors.Is(err, user.ErrResponseBadCredentials))
		_, err = f.svc.Authenticate(ctx, "nobody@mail.com", "password123")
		is.True(errors.Is(err, user.ErrResponseBadCredentials))
	})

	t.Run("an active account gets a token", func(t *testing.T) {
		is := is.New(t)
		is.NoErr(f.svc.ActivateAccount(ctx, f.codes[0]))

		f.issuer.EXPECT().IssueAccessToken(gomock.Any(), "carla@mail.com", "Carla Souza", []string{user.RoleUser}).Return("signed-token", nil)

		token, err := f.svc.Authenticate(ctx, "CARLA@mail.com", "password123")
		is.NoErr(err)
		is.Equal(token, "signed-token")
	})

	t.Run("a locked account cannot log in", func(t *testing.T) {
		is := is.New(t)
		u, err := f.store.GetUserByEmail(ctx, "carla@mail.com")
		is.NoErr(err)
		u.AccountLocked = true
		_, err = f.store.UpdateUser(ctx, u)
		is.NoErr(err)

		_, err = f.svc.Authenticate(ctx, "carla@mail.com", "password123")
		is.True(errors.Is(err, user.ErrResponseAccountLocked))
	})
}

func TestRegisterWithoutRoles(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)
	repo := usermock.NewMockRepository(ctrl)
	svc := user.NewService(repo, usermock.NewMockPasswordHasher(ctrl), usermock.NewMockTokenIssuer(ctrl), nil, activationTTL)

	repo.EXPECT().GetUserByEmail(gomock.Any(), "carla@mail.com").Return(user.User{}, user.ErrResponseUserNotFound)
	repo.EXPECT().GetRoleByName(gomock.Any(), user.RoleUser).Return(user.Role{}, user.ErrResponseRoleNotFound)

	err := svc.Register(ctx, validRegistration())
	is.True(errors.Is(err, user.ErrResponseRoleNotFound))
}
