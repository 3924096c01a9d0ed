package periods

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Handler wires accounting period endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers period routes under an org scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orgs/{orgID}/periods", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.updateRange)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/close", h.close)
		r.Post("/{id}/reopen", h.reopen)
		r.Post("/{id}/activate", h.activate)
	})
}

type periodRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Version   int64  `json:"version"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	periods, err := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()), orgID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"periods": periods})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orgID, id, err := urlOrgAndID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	period, err := h.service.Get(r.Context(), shared.UserIDFromContext(r.Context()), orgID, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, period)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req periodRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteError(w, shared.Wrap(shared.KindValidation, "name, start_date and end_date required", err))
		return
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	period, err := h.service.Create(r.Context(), CreateInput{
		OrgID:     orgID,
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		ActorID:   shared.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Warn("create period", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, period)
}

func (h *Handler) updateRange(w http.ResponseWriter, r *http.Request) {
	orgID, id, err := urlOrgAndID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req periodRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	period, err := h.service.UpdateRange(r.Context(), UpdateRangeInput{
		OrgID:     orgID,
		PeriodID:  id,
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		Version:   req.Version,
		ActorID:   shared.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Warn("update period", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, period)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Close)
}

func (h *Handler) reopen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reopen)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Activate)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actorID, orgID, id int64) (Period, error)) {
	orgID, id, err := urlOrgAndID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	period, err := fn(r.Context(), shared.UserIDFromContext(r.Context()), orgID, id)
	if err != nil {
		h.logger.Warn("period transition", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, period)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	orgID, id, err := urlOrgAndID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), orgID, id); err != nil {
		h.logger.Warn("delete period", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, shared.E(shared.KindValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, shared.E(shared.KindValidation, "end_date must be YYYY-MM-DD")
	}
	return start, end, nil
}

func urlID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "invalid "+key)
	}
	return id, nil
}

func urlOrgAndID(r *http.Request) (int64, int64, error) {
	orgID, err := urlID(r, "orgID")
	if err != nil {
		return 0, 0, err
	}
	id, err := urlID(r, "id")
	if err != nil {
		return 0, 0, err
	}
	return orgID, id, nil
}
