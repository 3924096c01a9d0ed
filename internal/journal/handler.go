package journal

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Handler wires journal entry endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers journal routes under an org scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orgs/{orgID}/journal-entries", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/approve", h.approve)
	})
}

type entryRequest struct {
	AccountingPeriodID int64       `json:"accounting_period_id" validate:"required"`
	EntryNumber        string      `json:"entry_number" validate:"required"`
	EntryDate          string      `json:"entry_date" validate:"required"`
	Description        string      `json:"description" validate:"required"`
	Lines              []LineInput `json:"lines" validate:"required"`
}

type entryPatchRequest struct {
	AccountingPeriodID *int64      `json:"accounting_period_id"`
	EntryNumber        *string     `json:"entry_number"`
	EntryDate          *string     `json:"entry_date"`
	Description        *string     `json:"description"`
	Lines              []LineInput `json:"lines"`
	Version            int64       `json:"version"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlJournalID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	filter := ListFilter{
		Status:  EntryStatus(r.URL.Query().Get("status")),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}
	if raw := r.URL.Query().Get("accounting_period_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			shared.WriteError(w, shared.E(shared.KindValidation, "invalid accounting_period_id"))
			return
		}
		filter.PeriodID = id
	}
	entries, page, err := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()), orgID, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries, "pagination": page})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orgID, id, err := urlJournalPair(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	entry, err := h.service.Get(r.Context(), shared.UserIDFromContext(r.Context()), orgID, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlJournalID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req entryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteError(w, shared.Wrap(shared.KindValidation, "accounting_period_id, entry_number, entry_date, description and lines required", err))
		return
	}
	date, err := parseEntryDate(req.EntryDate)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	entry, err := h.service.Create(r.Context(), CreateInput{
		OrgID:       orgID,
		PeriodID:    req.AccountingPeriodID,
		EntryNumber: req.EntryNumber,
		EntryDate:   date,
		Description: req.Description,
		Lines:       req.Lines,
		ActorID:     shared.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Warn("create journal entry", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	orgID, id, err := urlJournalPair(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req entryPatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	in := UpdateInput{
		OrgID:       orgID,
		EntryID:     id,
		PeriodID:    req.AccountingPeriodID,
		EntryNumber: req.EntryNumber,
		Description: req.Description,
		Lines:       req.Lines,
		Version:     req.Version,
		ActorID:     shared.UserIDFromContext(r.Context()),
	}
	if req.EntryDate != nil {
		date, err := parseEntryDate(*req.EntryDate)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		in.EntryDate = &date
	}
	entry, err := h.service.Update(r.Context(), in)
	if err != nil {
		h.logger.Warn("update journal entry", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	orgID, id, err := urlJournalPair(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	entry, err := h.service.Approve(r.Context(), shared.UserIDFromContext(r.Context()), orgID, id)
	if err != nil {
		h.logger.Warn("approve journal entry", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	orgID, id, err := urlJournalPair(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), orgID, id); err != nil {
		h.logger.Warn("delete journal entry", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

func parseEntryDate(raw string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, shared.E(shared.KindValidation, "entry_date must be YYYY-MM-DD")
	}
	return date, nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func urlJournalID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "invalid "+key)
	}
	return id, nil
}

func urlJournalPair(r *http.Request) (int64, int64, error) {
	orgID, err := urlJournalID(r, "orgID")
	if err != nil {
		return 0, 0, err
	}
	id, err := urlJournalID(r, "id")
	if err != nil {
		return 0, 0, err
	}
	return orgID, id, nil
}
