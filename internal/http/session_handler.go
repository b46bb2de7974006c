package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type SessionHandler struct {
	session *session.Manager
	auth    session.Authenticator
	timeout time.Duration
}

func NewSessionHandler(s *session.Manager, auth session.Authenticator, timeout time.Duration) *SessionHandler {
	return &SessionHandler{
		session: s,
		auth:    auth,
		timeout: timeout,
	}
}

type SessionDTO struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	TokenExpired  bool         `json:"tokenExpired,omitempty"`
	DefaultRoute  string       `json:"defaultRoute"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UsernameOrEmail) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "usernameOrEmail and password are required")
		return
	}

	if _, err := h.session.Login(ctx, h.auth, req); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.current())
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "username, email and password are required")
		return
	}

	if _, err := h.session.Register(ctx, h.auth, req); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, h.current())
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	route := h.session.Logout(ctx)
	w.Header().Set("X-Redirect-To", route)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.current())
}

func (h *SessionHandler) current() SessionDTO {
	dto := SessionDTO{
		Authenticated: h.session.IsAuthenticated(),
		User:          h.session.User(),
		DefaultRoute:  h.session.DefaultRoute(),
	}
	if dto.Authenticated {
		dto.TokenExpired = h.session.TokenExpired(time.Now())
	}
	return dto
}
