package pkgerrors

import (
	"context"
	"errors"
	"net/http"
)

// Kind classifies an ErrResponse so the transport layer can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindPermission
	KindNotFound
	KindConflict
)

type ErrResponse struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_message"`
	Kind    Kind   `json:"-"`
}

func (e ErrResponse) Error() string {
	return e.Message
}

/* Returns a copy of the error with extra detail appended to the message. */
func (e ErrResponse) WithDetail(detail string) ErrResponse {
	e.Message = e.Message + detail
	return e
}

var ErrResponseEntryInvalidJSON = ErrResponse{104, "invalid json request.", KindValidation}
var ErrResponseIdInvalidFormat = ErrResponse{105, "the endpoint is not a valid format ID. Must be a positive integer.", KindValidation}
var ErrResponseQueryPageInvalid = ErrResponse{106, "query parameter 'page' must be an int starting in 0. 'size' must be an int beetween 1 and 30.", KindValidation}
var ErrResponseUnauthorized = ErrResponse{108, "full authentication is required to access this resource: ", KindUnauthorized}
var ErrResponseRequestTimeout = ErrResponse{109, "context deadline exceeded", KindInternal}
var ErrResponseInternal = ErrResponse{900, "internal server error", KindInternal}

/* Maps any error returned by a service to the HTTP status and the body that should be sent. */
func StatusOf(err error) (int, ErrResponse) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, ErrResponseRequestTimeout
	}

	var errR ErrResponse
	if !errors.As(err, &errR) {
		return http.StatusInternalServerError, ErrResponseInternal
	}

	switch errR.Kind {
	case KindValidation:
		return http.StatusBadRequest, errR
	case KindUnauthorized:
		return http.StatusUnauthorized, errR
	case KindPermission:
		return http.StatusForbidden, errR
	case KindNotFound:
		return http.StatusNotFound, errR
	case KindConflict:
		return http.StatusConflict, errR
	default:
		return http.StatusInternalServerError, ErrResponseInternal
	}
}
