package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testIssuer(ttl time.Duration) *Issuer {
	return NewIssuer(Config{JWTSecret: "test-secret", AccessTokenTTL: ttl})
}

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, h.CheckPassword("s3cret-pass", hash))
	assert.False(t, h.CheckPassword("other-pass", hash))
}

func TestNewHasherInvalidCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
}

func TestIssueAndParseToken(t *testing.T) {
	issuer := testIssuer(time.Hour)

	token, err := issuer.IssueAccessToken(42, "ana@mail.com", "Ana Lima", []string{"USER"})
	require.NoError(t, err)

	p, err := issuer.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, "ana@mail.com", p.Email)
	assert.Equal(t, "Ana Lima", p.FullName)
	assert.True(t, p.HasRole("USER"))
	assert.False(t, p.HasRole("ADMIN"))
}

func TestParseTokenRejects(t *testing.T) {
	issuer := testIssuer(time.Hour)
	token, err := issuer.IssueAccessToken(1, "a@b.com", "A B", nil)
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other := NewIssuer(Config{JWTSecret: "another", AccessTokenTTL: time.Hour})
		_, err := other.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := testIssuer(time.Hour)
		expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := expired.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.ParseToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	issuer := testIssuer(time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	token, err := issuer.IssueAccessToken(7, "x@y.com", "X Y", []string{"USER"})
	require.NoError(t, err)

	var got Principal
	var reached bool
	handler := Middleware(issuer, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		got, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantUser   int64
	}{
		{"public auth route", "/api/v1/auth/authenticate", "", http.StatusNoContent, 0},
		{"public ping", "/ping", "", http.StatusNoContent, 0},
		{"missing header", "/api/v1/books", "", http.StatusUnauthorized, 0},
		{"not bearer", "/api/v1/books", "Basic abc", http.StatusUnauthorized, 0},
		{"bad token", "/api/v1/books", "Bearer abc", http.StatusUnauthorized, 0},
		{"valid token", "/api/v1/books", "Bearer " + token, http.StatusNoContent, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reached = Principal{}, false
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus != http.StatusUnauthorized, reached)
			assert.Equal(t, tt.wantUser, got.UserID)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"error_code":108`)
			}
		})
	}
}
