package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-books/meridian-books/internal/accounts"
	"github.com/meridian-books/meridian-books/internal/auth"
	"github.com/meridian-books/meridian-books/internal/journal"
	"github.com/meridian-books/meridian-books/internal/org"
	"github.com/meridian-books/meridian-books/internal/partners"
	"github.com/meridian-books/meridian-books/internal/periods"
	"github.com/meridian-books/meridian-books/internal/reports"
	"github.com/meridian-books/meridian-books/internal/shared"
	"github.com/meridian-books/meridian-books/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	AuthHandler    *auth.Handler
	OrgHandler     *org.Handler
	AccountHandler *accounts.Handler
	PartnerHandler *partners.Handler
	PeriodHandler  *periods.Handler
	JournalHandler *journal.Handler
	ReportHandler  *reports.Handler
	JobHandler     *jobs.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults. Everything
// except login and the health probes sits behind a session.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.AuthHandler.MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(RequireSession)
		params.OrgHandler.MountRoutes(r)
		params.AccountHandler.MountRoutes(r)
		params.PartnerHandler.MountRoutes(r)
		params.PeriodHandler.MountRoutes(r)
		params.JournalHandler.MountRoutes(r)
		params.ReportHandler.MountRoutes(r)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
