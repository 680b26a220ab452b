package http

import (
	"net/http"
	"time"

	"github.com/book-network/cmd/api/book"
	"github.com/book-network/cmd/api/logging"
)

type FeedbackHandler struct {
	feedbackService book.FeedbackServiceAPI
	metrics         *Metrics
	logger          *logging.Logger
}

func NewFeedbackHandler(feedbackService book.FeedbackServiceAPI, metrics *Metrics, logger *logging.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, metrics: metrics, logger: logger.Named("feedbacks")}
}

type FeedbackEntry struct {
	Note    *float64 `json:"note"`
	Comment string   `json:"comment"`
	BookID  int64    `json:"book_id"`
}

func (h *FeedbackHandler) saveFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var entry FeedbackEntry
	if !decodeJSON(w, r, &entry) {
		return
	}

	id, err := h.feedbackService.SaveFeedback(r.Context(), book.FeedbackRequest{
		Note:    entry.Note,
		Comment: entry.Comment,
		BookID:  entry.BookID,
	}, actor)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.metrics.FeedbackSubmitted()
	responseJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (h *FeedbackHandler) listFeedbacksByBook(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	bookID, ok := bookIDFrom(w, r)
	if !ok {
		return
	}
	page, size, ok := pageParamsFrom(w, r.URL.Query())
	if !ok {
		return
	}

	feedbacks, err := h.feedbackService.ListFeedbacksByBook(r.Context(), bookID, page, size, actor)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	responseJSON(w, http.StatusOK, pageToResponse(feedbacks, feedbackToResponse))
}

type FeedbackResponse struct {
	ID          int64     `json:"id"`
	Note        float64   `json:"note"`
	Comment     string    `json:"comment"`
	OwnFeedback bool      `json:"own_feedback"`
	CreatedAt   time.Time `json:"created_at"`
}

func feedbackToResponse(f book.FeedbackView) FeedbackResponse {
	return FeedbackResponse{
		ID:          f.ID,
		Note:        f.Note,
		Comment:     f.Comment,
		OwnFeedback: f.OwnFeedback,
		CreatedAt:   f.CreatedAt,
	}
}
