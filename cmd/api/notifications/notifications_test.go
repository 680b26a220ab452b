package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/book-network/cmd/api/book"
	"github.com/book-network/cmd/api/user"
	"github.com/matryer/is"
)

type published struct {
	path  string
	title string
	body  string
}

func newTopicServer(t *testing.T, status int) (*httptest.Server, func() []published) {
	var mu sync.Mutex
	var got []published
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, published{path: r.URL.Path, title: r.Header.Get("Title"), body: string(body)})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []published {
		mu.Lock()
		defer mu.Unlock()
		return append([]published{}, got...)
	}
}

func TestLoanChanged(t *testing.T) {
	srv, messages := newTopicServer(t, http.StatusOK)
	ntfy := NewNtfy(true, srv.URL+"/books", srv.Client())

	tests := []struct {
		name      string
		event     book.LoanEvent
		wantPath  string
		wantTitle string
	}{
		{"borrow goes to the owner", book.LoanEvent{State: book.LoanBorrowed, Title: "Dune", OwnerID: 1, BorrowerID: 2}, "/books_user_1", "Book borrowed"},
		{"return goes to the owner", book.LoanEvent{State: book.LoanReturned, Title: "Dune", OwnerID: 1, BorrowerID: 2}, "/books_user_1", "Book returned"},
		{"approval goes to the borrower", book.LoanEvent{State: book.LoanApproved, Title: "Dune", OwnerID: 1, BorrowerID: 2}, "/books_user_2", "Return approved"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)

			err := ntfy.LoanChanged(context.Background(), tt.event)
			is.NoErr(err)

			got := messages()
			is.Equal(len(got), i+1)
			is.Equal(got[i].path, tt.wantPath)
			is.Equal(got[i].title, tt.wantTitle)
		})
	}

	t.Run("unknown state is refused", func(t *testing.T) {
		is := is.New(t)

		err := ntfy.LoanChanged(context.Background(), book.LoanEvent{State: "lost"})
		is.True(err != nil)
	})
}

func TestActivationCode(t *testing.T) {
	is := is.New(t)
	srv, messages := newTopicServer(t, http.StatusOK)
	ntfy := NewNtfy(true, srv.URL+"/books", srv.Client())

	err := ntfy.ActivationCode(context.Background(), user.User{ID: 9, FirstName: "Rui", LastName: "Dias"}, "123456")
	is.NoErr(err)

	got := messages()
	is.Equal(len(got), 1)
	is.Equal(got[0].path, "/books_user_9")
	is.Equal(got[0].body, "Hello Rui Dias, your activation code is 123456")
}

func TestPublishFailures(t *testing.T) {
	t.Run("disabled notifications send nothing", func(t *testing.T) {
		is := is.New(t)
		srv, messages := newTopicServer(t, http.StatusOK)
		ntfy := NewNtfy(false, srv.URL+"/books", srv.Client())

		is.NoErr(ntfy.ActivationCode(context.Background(), user.User{ID: 1}, "000000"))
		is.Equal(len(messages()), 0)
	})

	t.Run("error status is reported", func(t *testing.T) {
		is := is.New(t)
		srv, _ := newTopicServer(t, http.StatusTooManyRequests)
		ntfy := NewNtfy(true, srv.URL+"/books", srv.Client())

		err := ntfy.ActivationCode(context.Background(), user.User{ID: 1}, "000000")
		is.True(errors.Is(err, ErrNotificationFailed))
	})

	t.Run("expected context timeout error", func(t *testing.T) {
		is := is.New(t)
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		t.Cleanup(slow.Close)
		ntfy := NewNtfy(true, slow.URL+"/books", slow.Client())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Millisecond)
		defer cancel()

		err := ntfy.LoanChanged(ctx, book.LoanEvent{State: book.LoanBorrowed, OwnerID: 1})
		is.True(errors.Is(err, context.DeadlineExceeded))
	})
}
