package partners

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Handler wires partner endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers partner routes under an org scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orgs/{orgID}/partners", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type partnerRequest struct {
	Code  string `json:"code" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Kind  string `json:"kind" validate:"required,oneof=customer vendor"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

type partnerPatchRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlPartnerID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	list, err := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()), orgID, Kind(r.URL.Query().Get("kind")))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"partners": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orgID, id, err := urlPartnerPair(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), shared.UserIDFromContext(r.Context()), orgID, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlPartnerID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req partnerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteError(w, shared.Wrap(shared.KindValidation, "code, name and kind required", err))
		return
	}
	p, err := h.service.Create(r.Context(), CreateInput{
		OrgID:   orgID,
		Code:    req.Code,
		Name:    req.Name,
		Kind:    Kind(req.Kind),
		Email:   req.Email,
		Phone:   req.Phone,
		ActorID: shared.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Warn("create partner", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	orgID, id, err := urlPartnerPair(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req partnerPatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), UpdateInput{
		OrgID:     orgID,
		PartnerID: id,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		IsActive:  req.IsActive,
		ActorID:   shared.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Warn("update partner", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	orgID, id, err := urlPartnerPair(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), orgID, id); err != nil {
		h.logger.Warn("delete partner", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

func urlPartnerID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "invalid "+key)
	}
	return id, nil
}

func urlPartnerPair(r *http.Request) (int64, int64, error) {
	orgID, err := urlPartnerID(r, "orgID")
	if err != nil {
		return 0, 0, err
	}
	id, err := urlPartnerID(r, "id")
	if err != nil {
		return 0, 0, err
	}
	return orgID, id, nil
}
