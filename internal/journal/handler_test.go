package journal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newListFixture(t *testing.T) http.Handler {
	t.Helper()
	svc, _, _, _, _ := fixture(t)

	first, err := svc.Create(context.Background(), balancedInput())
	require.NoError(t, err)
	second := balancedInput()
	second.EntryNumber = "JE-2026-002"
	_, err = svc.Create(context.Background(), second)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), 6, 1, first.ID)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(r)
	return r
}

func listEntries(t *testing.T, router http.Handler, url string) []Entry {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries []Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Entries
}

func TestListHandlerStatusFilter(t *testing.T) {
	router := newListFixture(t)

	entries := listEntries(t, router, "/orgs/1/journal-entries?status=approved")
	require.Len(t, entries, 1)
	require.Equal(t, StatusApproved, entries[0].Status)

	entries = listEntries(t, router, "/orgs/1/journal-entries?status=draft")
	require.Len(t, entries, 1)
	require.Equal(t, StatusDraft, entries[0].Status)

	entries = listEntries(t, router, "/orgs/1/journal-entries")
	require.Len(t, entries, 2)
}

func TestListHandlerRejectsBadPeriodFilter(t *testing.T) {
	router := newListFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/orgs/1/journal-entries?accounting_period_id=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
