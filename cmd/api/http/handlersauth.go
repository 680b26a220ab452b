package http

import (
	"net/http"
	"time"

	"github.com/book-network/cmd/api/logging"
	"github.com/book-network/cmd/api/pkgerrors"
	"github.com/book-network/cmd/api/user"
)

const dateLayout = "2006-01-02"

type AuthHandler struct {
	userService user.ServiceAPI
	logger      *logging.Logger
}

func NewAuthHandler(userService user.ServiceAPI, logger *logging.Logger) *AuthHandler {
	return &AuthHandler{userService: userService, logger: logger.Named("accounts")}
}

type RegistrationEntry struct {
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"date_of_birth"`
}

type AuthenticationEntry struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthenticationResponse struct {
	Token string `json:"token"`
}

/* Creates a disabled account and sends its activation code. */
func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var entry RegistrationEntry
	if !decodeJSON(w, r, &entry) {
		return
	}

	req := user.RegistrationRequest{
		FirstName: entry.FirstName,
		LastName:  entry.LastName,
		Email:     entry.Email,
		Password:  entry.Password,
	}
	if entry.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, entry.DateOfBirth)
		if err != nil {
			responseJSON(w, http.StatusBadRequest, pkgerrors.ErrResponseEntryInvalidJSON.WithDetail("date_of_birth must be formatted as YYYY-MM-DD"))
			return
		}
		req.DateOfBirth = &dob
	}

	err := h.userService.Register(r.Context(), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request) {
	var entry AuthenticationEntry
	if !decodeJSON(w, r, &entry) {
		return
	}

	token, err := h.userService.Authenticate(r.Context(), entry.Email, entry.Password)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	responseJSON(w, http.StatusOK, AuthenticationResponse{Token: token})
}

func (h *AuthHandler) activateAccount(w http.ResponseWriter, r *http.Request) {
	err := h.userService.ActivateAccount(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
