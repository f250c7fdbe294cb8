package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mediwrap/platform/pkg/logging"
)

// Handler exposes authentication over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a session handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type credentialsRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
	Name            string `json:"name,omitempty"`
	Role            string `json:"role,omitempty"`
}

type authResponse struct {
	Token   string   `json:"token"`
	Session *Session `json:"session"`
}

// Login handles POST /auth/login requests.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	sess, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.logger.Error("login failed", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(authResponse{Token: token, Session: sess})
}

// Signup handles POST /auth/signup requests.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}
	if req.ConfirmPassword != req.Password {
		http.Error(w, ErrPasswordMismatch.Error(), http.StatusConflict)
		return
	}

	sess, token, err := h.svc.Signup(r.Context(), req.Email, req.Password, req.Name, req.Role)
	switch {
	case errors.Is(err, ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, ErrInvalidRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("signup failed", "error", err)
		http.Error(w, "signup failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(authResponse{Token: token, Session: sess})
}

// Logout handles POST /auth/logout requests. It succeeds even without a
// session: signing out twice is not an error.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := FromContext(r.Context()); ok {
		h.svc.Logout(r.Context(), sess.IdentityID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Current handles GET /auth/session requests for the authenticated caller.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	sess, ok := FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}
