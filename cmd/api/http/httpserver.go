package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/book-network/cmd/api/auth"
	"github.com/book-network/cmd/api/logging"
)

const apiPrefix = "/api/v1"

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Handlers groups the route owners mounted by NewServer.
type Handlers struct {
	Books     *BookHandler
	Feedbacks *FeedbackHandler
	Accounts  *AuthHandler
}

func NewServer(config ServerConfig, h Handlers, issuer *auth.Issuer, metrics *Metrics, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", ping)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST "+apiPrefix+"/auth/register", h.Accounts.register)
	mux.HandleFunc("POST "+apiPrefix+"/auth/authenticate", h.Accounts.authenticate)
	mux.HandleFunc("GET "+apiPrefix+"/auth/activate-account", h.Accounts.activateAccount)

	mux.HandleFunc("POST "+apiPrefix+"/books", h.Books.saveBook)
	mux.HandleFunc("GET "+apiPrefix+"/books", h.Books.listDisplayableBooks)
	mux.HandleFunc("GET "+apiPrefix+"/books/{book_id}", h.Books.getBook)
	mux.HandleFunc("GET "+apiPrefix+"/books/owner", h.Books.listBooksByOwner)
	mux.HandleFunc("GET "+apiPrefix+"/books/borrowed", h.Books.listBorrowedBooks)
	mux.HandleFunc("GET "+apiPrefix+"/books/returned", h.Books.listReturnedBooks)
	mux.HandleFunc("PATCH "+apiPrefix+"/books/shareable/{book_id}", h.Books.updateShareableStatus)
	mux.HandleFunc("PATCH "+apiPrefix+"/books/archived/{book_id}", h.Books.updateArchivedStatus)
	mux.HandleFunc("POST "+apiPrefix+"/books/borrow/{book_id}", h.Books.borrowBook)
	mux.HandleFunc("PATCH "+apiPrefix+"/books/borrow/return/{book_id}", h.Books.returnBorrowedBook)
	mux.HandleFunc("PATCH "+apiPrefix+"/books/borrow/return/approve/{book_id}", h.Books.approveReturnBorrowedBook)
	mux.HandleFunc("POST "+apiPrefix+"/books/cover/{book_id}", h.Books.uploadBookCover)
	mux.HandleFunc("GET "+apiPrefix+"/books/cover/{book_id}", h.Books.getBookCover)

	mux.HandleFunc("POST "+apiPrefix+"/feedbacks", h.Feedbacks.saveFeedback)
	mux.HandleFunc("GET "+apiPrefix+"/feedbacks/book/{book_id}", h.Feedbacks.listFeedbacksByBook)

	var handler http.Handler = mux
	handler = withTimeout(config.RequestTimeout)(handler)
	handler = auth.Middleware(issuer, logger.Named("auth").Logger)(handler)
	handler = accessLog(logger.Named("http"))(handler)
	handler = metrics.middleware(handler)

	server := http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &server
}

/* Tests the http server connection.  */
func ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

/* Bounds the context every handler hands to the services. Zero disables the bound. */
func withTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessLog(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			logger.HTTPRequestLog(r.Method, r.URL.Path, wrapped.status, time.Since(start), clientIP(r))
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
