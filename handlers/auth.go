package handlers

import (
	"errors"
	"net/http"
	"strings"

	"reelstream/models"
	"reelstream/services/accounts"
	"reelstream/services/sessions"
)

type accountsService interface {
	Register(email, password string) (models.Account, error)
	Authenticate(email, password string) (models.Account, error)
	Get(id string) (models.Account, error)
}

type sessionsService interface {
	Create(userID string) (models.Session, error)
	Revoke(token string) error
}

var (
	_ accountsService = (*accounts.Service)(nil)
	_ sessionsService = (*sessions.Service)(nil)
)

type AuthHandler struct {
	Accounts accountsService
	Sessions sessionsService
}

func NewAuthHandler(accountsSvc accountsService, sessionsSvc sessionsService) *AuthHandler {
	return &AuthHandler{Accounts: accountsSvc, Sessions: sessionsSvc}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string         `json:"token"`
	User  models.Account `json:"user"`
}

// Register creates an account and logs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := h.Accounts.Register(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrEmailInUse):
			writeJSONError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, accounts.ErrEmailRequired),
			errors.Is(err, accounts.ErrPasswordTooShort):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	session, err := h.Sessions.Create(account.ID)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: session.Token, User: account})
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := h.Accounts.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			writeJSONError(w, err.Error(), http.StatusUnauthorized)
			return
		}
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	session, err := h.Sessions.Create(account.ID)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: session.Token, User: account})
}

// Logout revokes the presented token. Unknown tokens are ignored.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := BearerToken(r)
	if token == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.Sessions.Revoke(token); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	account, err := h.Accounts.Get(userID)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			writeJSONError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *AuthHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
