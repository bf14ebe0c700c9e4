package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/snarg/voxmood/internal/auth"
	"github.com/snarg/voxmood/internal/database"
)

// AuthHandler serves registration, login, and logout.
type AuthHandler struct {
	svc *auth.Service
	log zerolog.Logger
}

func NewAuthHandler(svc *auth.Service, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log.With().Str("handler", "auth").Logger()}
}

// Routes registers auth routes on the given router.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/me", h.Me)
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := DecodeJSON(r, &creds); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.svc.Register(r.Context(), creds)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, database.ErrUsernameTaken) {
		WriteError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("registration failed")
		WriteError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"user_id":  id,
		"username": creds.Username,
	})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := DecodeJSON(r, &creds); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Login(r.Context(), creds)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		WriteError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("login failed")
		WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		WriteError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := h.svc.CurrentUserID(r.Context())
	if id == 0 {
		WriteError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user_id": id})
}
