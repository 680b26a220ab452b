package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/book-network/cmd/api/auth"
	"github.com/book-network/cmd/api/book"
	"github.com/book-network/cmd/api/logging"
	"github.com/book-network/cmd/api/pkgerrors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxCoverSize = 5 << 20

type BookHandler struct {
	bookService book.ServiceAPI
	metrics     *Metrics
	logger      *logging.Logger
}

func NewBookHandler(bookService book.ServiceAPI, metrics *Metrics, logger *logging.Logger) *BookHandler {
	return &BookHandler{bookService: bookService, metrics: metrics, logger: logger.Named("books")}
}

type BookEntry struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
	ISBN       string `json:"isbn"`
	Synopsis   string `json:"synopsis"`
	Shareable  bool   `json:"shareable"`
}

type IDResponse struct {
	ID int64 `json:"id"`
}

/* Validates the entry, then stores the entry as a new book of the requesting user. */
func (h *BookHandler) saveBook(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var entry BookEntry
	if !decodeJSON(w, r, &entry) {
		return
	}

	id, err := h.bookService.SaveBook(r.Context(), book.CreateBookRequest{
		Title:      entry.Title,
		AuthorName: entry.AuthorName,
		ISBN:       entry.ISBN,
		Synopsis:   entry.Synopsis,
		Shareable:  entry.Shareable,
	}, actor)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	responseJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (h *BookHandler) getBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookIDFrom(w, r)
	if !ok {
		return
	}

	b, err := h.bookService.GetBook(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	responseJSON(w, http.StatusOK, bookToResponse(b))
}

func (h *BookHandler) listDisplayableBooks(w http.ResponseWriter, r *http.Request) {
	h.listBooks(w, r, h.bookService.ListDisplayableBooks)
}

func (h *BookHandler) listBooksByOwner(w http.ResponseWriter, r *http.Request) {
	h.listBooks(w, r, h.bookService.ListBooksByOwner)
}

type bookLister func(ctx context.Context, page, size int, actor book.Actor) (book.Page[book.Book], error)

func (h *BookHandler) listBooks(w http.ResponseWriter, r *http.Request, list bookLister) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	page, size, ok := pageParamsFrom(w, r.URL.Query())
	if !ok {
		return
	}

	books, err := list(r.Context(), page, size, actor)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	responseJSON(w, http.StatusOK, pageToResponse(books, bookToResponse))
}

func (h *BookHandler) listBorrowedBooks(w http.ResponseWriter, r *http.Request) {
	h.listLoans(w, r, h.bookService.ListBorrowedBooks)
}

func (h *BookHandler) listReturnedBooks(w http.ResponseWriter, r *http.Request) {
	h.listLoans(w, r, h.bookService.ListReturnedBooks)
}

type loanLister func(ctx context.Context, page, size int, actor book.Actor) (book.Page[book.BorrowedBook], error)

func (h *BookHandler) listLoans(w http.ResponseWriter, r *http.Request, list loanLister) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	page, size, ok := pageParamsFrom(w, r.URL.Query())
	if !ok {
		return
	}

	loans, err := list(r.Context(), page, size, actor)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	responseJSON(w, http.StatusOK, pageToResponse(loans, borrowedBookToResponse))
}

func (h *BookHandler) updateShareableStatus(w http.ResponseWriter, r *http.Request) {
	h.bookAction(w, r, h.bookService.UpdateShareableStatus, "")
}

func (h *BookHandler) updateArchivedStatus(w http.ResponseWriter, r *http.Request) {
	h.bookAction(w, r, h.bookService.UpdateArchivedStatus, "")
}

func (h *BookHandler) borrowBook(w http.ResponseWriter, r *http.Request) {
	h.bookAction(w, r, h.bookService.BorrowBook, book.LoanBorrowed)
}

func (h *BookHandler) returnBorrowedBook(w http.ResponseWriter, r *http.Request) {
	h.bookAction(w, r, h.bookService.ReturnBorrowedBook, book.LoanReturned)
}

func (h *BookHandler) approveReturnBorrowedBook(w http.ResponseWriter, r *http.Request) {
	h.bookAction(w, r, h.bookService.ApproveReturnBorrowedBook, book.LoanApproved)
}

type bookAction func(ctx context.Context, bookID int64, actor book.Actor) (int64, error)

/* Runs an action on the book named in the path and answers with the id the action returned. */
func (h *BookHandler) bookAction(w http.ResponseWriter, r *http.Request, action bookAction, transition book.LoanState) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	bookID, ok := bookIDFrom(w, r)
	if !ok {
		return
	}

	id, err := action(r.Context(), bookID, actor)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if transition != "" {
		h.metrics.LoanTransition(transition)
	}
	responseJSON(w, http.StatusOK, IDResponse{ID: id})
}

/* Reads the multipart field "file" and hands it to the service as the new cover. */
func (h *BookHandler) uploadBookCover(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	bookID, ok := bookIDFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize+1<<10)
	file, header, err := r.FormFile("file")
	if isMaxBytesError(err) {
		responseJSON(w, http.StatusRequestEntityTooLarge, book.ErrResponseCoverInvalid.WithDetail(" the file exceeds 5MB."))
		return
	}
	if err != nil {
		responseJSON(w, http.StatusBadRequest, book.ErrResponseCoverInvalid.WithDetail(" "+err.Error()))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err = h.bookService.UploadBookCover(r.Context(), bookID, actor, file, header.Size, contentType)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *BookHandler) getBookCover(w http.ResponseWriter, r *http.Request) {
	bookID, ok := bookIDFrom(w, r)
	if !ok {
		return
	}

	rc, err := h.bookService.GetBookCover(r.Context(), bookID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	defer rc.Close()

	cover, err := io.ReadAll(io.LimitReader(rc, maxCoverSize))
	if err != nil {
		handleError(w, h.logger, fmt.Errorf("reading cover of book %d: %w", bookID, err))
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(cover))
	w.Header().Set("Content-Length", strconv.Itoa(len(cover)))
	w.WriteHeader(http.StatusOK)
	w.Write(cover)
}

type BookResponse struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	AuthorName string  `json:"author_name"`
	ISBN       string  `json:"isbn"`
	Synopsis   string  `json:"synopsis"`
	Owner      string  `json:"owner"`
	Cover      string  `json:"cover,omitempty"`
	Rate       float64 `json:"rate"`
	Archived   bool    `json:"archived"`
	Shareable  bool    `json:"shareable"`
}

/* Copy the fields of a book object to an http layer struct with json tags. The cover becomes the path it is served on. */
func bookToResponse(b book.Book) BookResponse {
	resp := BookResponse{
		ID:         b.ID,
		Title:      b.Title,
		AuthorName: b.AuthorName,
		ISBN:       b.ISBN,
		Synopsis:   b.Synopsis,
		Owner:      b.OwnerName,
		Rate:       b.Rate(),
		Archived:   b.Archived,
		Shareable:  b.Shareable,
	}
	if b.Cover != "" {
		resp.Cover = fmt.Sprintf("%s/books/cover/%d", apiPrefix, b.ID)
	}
	return resp
}

type BorrowedBookResponse struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	AuthorName     string  `json:"author_name"`
	ISBN           string  `json:"isbn"`
	Rate           float64 `json:"rate"`
	Returned       bool    `json:"returned"`
	ReturnApproved bool    `json:"return_approved"`
}

func borrowedBookToResponse(b book.BorrowedBook) BorrowedBookResponse {
	return BorrowedBookResponse{
		ID:             b.BookID,
		Title:          b.Title,
		AuthorName:     b.AuthorName,
		ISBN:           b.ISBN,
		Rate:           b.Rate,
		Returned:       b.Returned,
		ReturnApproved: b.ReturnApproved,
	}
}

type PageResponse[T any] struct {
	Content       []T  `json:"content"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	TotalElements int  `json:"total_elements"`
	TotalPages    int  `json:"total_pages"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
}

/*Copy the fields of a page to an http layer struct with json tags, mapping every item.*/
func pageToResponse[T, R any](page book.Page[T], mapItem func(T) R) PageResponse[R] {
	content := make([]R, 0, len(page.Items))
	for _, item := range page.Items {
		content = append(content, mapItem(item))
	}

	return PageResponse[R]{
		Content:       content,
		Number:        page.Number,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		First:         page.First,
		Last:          page.Last,
	}
}

/*Writes a JSON response into a http.ResponseWriter. */
func responseJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

/* Translates a service error into its status and body. Unexpected errors are logged and hidden. */
func handleError(w http.ResponseWriter, logger *logging.Logger, err error) {
	status, body := pkgerrors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).Error("request failed", "status", status)
	}
	responseJSON(w, status, body)
}

/* Decodes the JSON body into dst, answering 400 when it is malformed. */
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		responseJSON(w, http.StatusBadRequest, pkgerrors.ErrResponseEntryInvalidJSON.WithDetail(err.Error()))
		return false
	}
	return true
}

/* Reads the acting user from the principal stored by the auth middleware. */
func actorFrom(w http.ResponseWriter, r *http.Request) (book.Actor, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		responseJSON(w, http.StatusUnauthorized, pkgerrors.ErrResponseUnauthorized.WithDetail("no principal on request"))
		return book.Actor{}, false
	}
	return book.Actor{ID: p.UserID}, true
}

/* Isolates the book ID from the URL. */
func bookIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("book_id"), 10, 64)
	if err != nil || id <= 0 {
		responseJSON(w, http.StatusBadRequest, pkgerrors.ErrResponseIdInvalidFormat)
		return 0, false
	}
	return id, true
}

/*Validates and prepares the paging parameters of the query.*/
func pageParamsFrom(w http.ResponseWriter, query url.Values) (page int, size int, valid bool) {
	page, size = 0, book.PageSizeDefault
	var err error

	if s := query.Get("page"); s != "" {
		page, err = strconv.Atoi(s)
		if err != nil {
			responseJSON(w, http.StatusBadRequest, pkgerrors.ErrResponseQueryPageInvalid)
			return 0, 0, false
		}
	}
	if s := query.Get("size"); s != "" {
		size, err = strconv.Atoi(s)
		if err != nil {
			responseJSON(w, http.StatusBadRequest, pkgerrors.ErrResponseQueryPageInvalid)
			return 0, 0, false
		}
	}
	if !book.ValidPageParams(page, size) {
		responseJSON(w, http.StatusBadRequest, pkgerrors.ErrResponseQueryPageInvalid)
		return 0, 0, false
	}
	return page, size, true
}

func isMaxBytesError(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
