package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		validate: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteError(w, shared.Wrap(shared.KindValidation, "email and password required", err))
		return
	}
	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sess, err := h.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("issue session", slog.Any("error", err))
		shared.WriteError(w, shared.Wrap(shared.KindInternal, "session issue failed", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		UserID:    user.ID,
		ExpiresAt: sess.IssuedAt.Add(h.sessions.TTL()),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		shared.WriteError(w, shared.ErrUnauthorized)
		return
	}
	if err := h.sessions.Revoke(r.Context(), sess.Token); err != nil {
		h.logger.Error("revoke session", slog.Any("error", err))
		shared.WriteError(w, shared.Wrap(shared.KindInternal, "session revoke failed", err))
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}
