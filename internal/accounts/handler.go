package accounts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Handler wires chart of accounts endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers account routes under an org scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orgs/{orgID}/accounts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type createAccountRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
	Category string `json:"category"`
	ParentID *int64 `json:"parent_id"`
}

type updateAccountRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	ParentID    *int64  `json:"parent_id"`
	ClearParent bool    `json:"clear_parent"`
	IsActive    *bool   `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	accounts, err := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()), orgID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	acc, err := h.service.Get(r.Context(), shared.UserIDFromContext(r.Context()), orgID, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, acc)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req createAccountRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteError(w, shared.Wrap(shared.KindValidation, "code, name and a valid type are required", err))
		return
	}
	acc, err := h.service.Create(r.Context(), CreateInput{
		OrgID:    orgID,
		Code:     req.Code,
		Name:     req.Name,
		Type:     AccountType(req.Type),
		Category: req.Category,
		ParentID: req.ParentID,
		ActorID:  shared.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Warn("create account", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, acc)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateAccountRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	acc, err := h.service.Update(r.Context(), UpdateInput{
		OrgID:     orgID,
		AccountID: id,
		Code:      req.Code,
		Name:      req.Name,
		Category:  req.Category,
		ParentID:  req.ParentID,
		ClearPID:  req.ClearParent,
		IsActive:  req.IsActive,
		ActorID:   shared.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Warn("update account", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, acc)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), orgID, id); err != nil {
		h.logger.Warn("delete account", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

func urlID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "invalid "+key)
	}
	return id, nil
}
