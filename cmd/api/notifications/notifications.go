package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/book-network/cmd/api/book"
	"github.com/book-network/cmd/api/user"
)

var ErrNotificationFailed = errors.New("notification was not accepted")

// Ntfy publishes messages to ntfy topics. Every user has a topic named
// after the base topic and its id.
type Ntfy struct {
	baseURL string
	enabled bool
	client  *http.Client
}

func NewNtfy(enableNotifications bool, notificationsBaseURL string, client *http.Client) *Ntfy {
	if client == nil {
		client = &http.Client{}
	}
	return &Ntfy{
		baseURL: strings.TrimRight(notificationsBaseURL, "/"),
		enabled: enableNotifications,
		client:  client,
	}
}

func (ntf *Ntfy) userTopic(userID int64) string {
	return fmt.Sprintf("%s_user_%d", ntf.baseURL, userID)
}

/* Tells the owner about borrows and returns, and the borrower about approvals. */
func (ntf *Ntfy) LoanChanged(ctx context.Context, event book.LoanEvent) error {
	var recipient int64
	var title, message string
	switch event.State {
	case book.LoanBorrowed:
		recipient = event.OwnerID
		title = "Book borrowed"
		message = fmt.Sprintf("Your book %q was borrowed.", event.Title)
	case book.LoanReturned:
		recipient = event.OwnerID
		title = "Book returned"
		message = fmt.Sprintf("Your book %q was returned and waits for your approval.", event.Title)
	case book.LoanApproved:
		recipient = event.BorrowerID
		title = "Return approved"
		message = fmt.Sprintf("The return of %q was approved.", event.Title)
	default:
		return fmt.Errorf("unknown loan state %q", event.State)
	}

	return ntf.publish(ctx, ntf.userTopic(recipient), title, message)
}

func (ntf *Ntfy) ActivationCode(ctx context.Context, u user.User, code string) error {
	message := fmt.Sprintf("Hello %s, your activation code is %s", u.FullName(), code)
	return ntf.publish(ctx, ntf.userTopic(u.ID), "Activate your account", message)
}

func (ntf *Ntfy) publish(ctx context.Context, topic, title, message string) error {
	if !ntf.enabled {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, topic, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("error delivering message to topic (%s): %w", topic, err)
	}
	req.Header.Set("Title", title)

	resp, err := ntf.client.Do(req)
	if err != nil {
		return fmt.Errorf("error delivering message to topic (%s): %w", topic, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("topic (%s) answered %d: %w", topic, resp.StatusCode, ErrNotificationFailed)
	}
	return nil
}
