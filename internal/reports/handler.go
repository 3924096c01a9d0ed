package reports

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Handler wires report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes under an org scope. CSV export is
// rate limited per client since it bypasses the cache-friendly JSON path.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orgs/{orgID}/reports", func(r chi.Router) {
		r.Get("/trial-balance", h.trialBalance)
		r.Get("/balance-sheet", h.balanceSheet)
		r.Get("/income-statement", h.incomeStatement)
		r.Get("/cashflow", h.cashflow)
		r.Get("/general-ledger", h.generalLedger)
		r.Get("/cash-book", h.cashBook)
		r.Get("/ar-aging", h.arAging)
		r.Get("/ap-aging", h.apAging)
		r.Get("/summary", h.summary)
		r.With(httprate.LimitByIP(10, time.Minute)).Get("/trial-balance.csv", h.trialBalanceCSV)
	})
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlReportID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	periodID, err := queryID(r, "period_id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), shared.UserIDFromContext(r.Context()), orgID, periodID)
	if err != nil {
		h.logger.Warn("trial balance", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, tb)
}

func (h *Handler) trialBalanceCSV(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlReportID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	periodID, err := queryID(r, "period_id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), shared.UserIDFromContext(r.Context()), orgID, periodID)
	if err != nil {
		h.logger.Warn("trial balance export", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trial-balance.csv"`)
	if err := WriteTrialBalanceCSV(w, tb); err != nil {
		h.logger.Error("trial balance export write", slog.Any("error", err))
	}
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlReportID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	asOf, err := queryDate(r, "as_of", time.Now().UTC())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	bs, err := h.service.BalanceSheet(r.Context(), shared.UserIDFromContext(r.Context()), orgID, asOf)
	if err != nil {
		h.logger.Warn("balance sheet", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, bs)
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	h.rangeReport(w, r, func(orgID, actorID int64, from, to time.Time) (any, error) {
		return h.service.IncomeStatement(r.Context(), actorID, orgID, from, to)
	})
}

func (h *Handler) cashflow(w http.ResponseWriter, r *http.Request) {
	h.rangeReport(w, r, func(orgID, actorID int64, from, to time.Time) (any, error) {
		points, err := h.service.Cashflow(r.Context(), actorID, orgID, from, to)
		if err != nil {
			return nil, err
		}
		return map[string]any{"points": points}, nil
	})
}

func (h *Handler) cashBook(w http.ResponseWriter, r *http.Request) {
	h.rangeReport(w, r, func(orgID, actorID int64, from, to time.Time) (any, error) {
		return h.service.CashBook(r.Context(), actorID, orgID, from, to)
	})
}

func (h *Handler) generalLedger(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryID(r, "account_id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	h.rangeReport(w, r, func(orgID, actorID int64, from, to time.Time) (any, error) {
		return h.service.GeneralLedger(r.Context(), actorID, orgID, accountID, from, to)
	})
}

func (h *Handler) rangeReport(w http.ResponseWriter, r *http.Request, fn func(orgID, actorID int64, from, to time.Time) (any, error)) {
	orgID, err := urlReportID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	from, err := queryDate(r, "from", time.Time{})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	to, err := queryDate(r, "to", time.Now().UTC())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := fn(orgID, shared.UserIDFromContext(r.Context()), from, to)
	if err != nil {
		h.logger.Warn("range report", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) arAging(w http.ResponseWriter, r *http.Request) {
	h.aging(w, r, h.service.ARAging)
}

func (h *Handler) apAging(w http.ResponseWriter, r *http.Request) {
	h.aging(w, r, h.service.APAging)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actorID, orgID int64, asOf time.Time) (AgingReport, error)) {
	orgID, err := urlReportID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	asOf, err := queryDate(r, "as_of", time.Time{})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	report, err := fn(r.Context(), shared.UserIDFromContext(r.Context()), orgID, asOf)
	if err != nil {
		h.logger.Warn("aging report", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	orgID, err := urlReportID(r, "orgID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	periodID, err := queryID(r, "period_id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	summary, err := h.service.FinancialSummary(r.Context(), shared.UserIDFromContext(r.Context()), orgID, periodID)
	if err != nil {
		h.logger.Warn("financial summary", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, summary)
}

func queryID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, key+" required")
	}
	return id, nil
}

func queryDate(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, shared.E(shared.KindValidation, key+" must be YYYY-MM-DD")
	}
	return t, nil
}

func urlReportID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "invalid "+key)
	}
	return id, nil
}
