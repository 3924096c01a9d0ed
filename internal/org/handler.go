package org

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Handler wires organization endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers organization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orgs", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{orgID}/members", h.listMembers)
		r.Post("/{orgID}/members", h.addMember)
	})
}

type createOrgRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrgRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteError(w, shared.Wrap(shared.KindValidation, "organization name required", err))
		return
	}
	org, err := h.service.CreateOrganization(r.Context(), CreateOrgInput{
		Name:    req.Name,
		ActorID: shared.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Warn("create organization", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, org)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.service.ListOrganizations(r.Context(), shared.UserIDFromContext(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}

type addMemberRequest struct {
	UserID int64  `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=admin accountant viewer"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req addMemberRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteError(w, shared.Wrap(shared.KindValidation, "user_id and valid role required", err))
		return
	}
	input := AddMemberInput{
		OrgID:   orgID,
		UserID:  req.UserID,
		Role:    shared.Role(req.Role),
		ActorID: shared.UserIDFromContext(r.Context()),
	}
	if err := h.service.AddMember(r.Context(), input); err != nil {
		h.logger.Warn("add member", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	members, err := h.service.ListMembers(r.Context(), shared.UserIDFromContext(r.Context()), orgID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"members": members})
}

func urlID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "invalid "+key)
	}
	return id, nil
}
