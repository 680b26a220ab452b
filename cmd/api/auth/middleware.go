package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/book-network/cmd/api/pkgerrors"
	jsoniter "github.com/json-iterator/go"
)

// Routes reachable without an access token, matched by prefix.
var publicPrefixes = []string{
	"/api/v1/auth/",
	"/ping",
	"/metrics",
}

func isPublicRoute(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

/* Rejects every non public request without a valid Bearer token and stores the principal in the request context. */
func Middleware(issuer *Issuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				unauthorized(w, "invalid authorization header")
				return
			}

			p, err := issuer.ParseToken(strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Debug("token rejected", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	jsoniter.NewEncoder(w).Encode(pkgerrors.ErrResponseUnauthorized.WithDetail(msg))
}
