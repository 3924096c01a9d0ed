package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-books/meridian-books/internal/shared"
)

type memUserRepo struct {
	users map[string]*User
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func newAuthFixture(t *testing.T) (http.Handler, *shared.SessionManager) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &memUserRepo{users: map[string]*User{
		"ada@example.com": {ID: 1, Email: "ada@example.com", Name: "Ada", PasswordHash: string(hash), IsActive: true},
		"off@example.com": {ID: 2, Email: "off@example.com", Name: "Off", PasswordHash: string(hash), IsActive: false},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo), sessions)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if sess, err := sessions.Resolve(ctx, req); err == nil && sess != nil {
				ctx = shared.ContextWithSession(ctx, sess)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	handler.MountRoutes(r)
	return r, sessions
}

func login(t *testing.T, router http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginIssuesSession(t *testing.T) {
	router, sessions := newAuthFixture(t)

	rec := login(t, router, "ada@example.com", "s3cret-pass")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token  string `json:"token"`
		UserID int64  `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, int64(1), resp.UserID)

	probe := httptest.NewRequest(http.MethodGet, "/", nil)
	probe.Header.Set("Authorization", "Bearer "+resp.Token)
	sess, err := sessions.Resolve(context.Background(), probe)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, int64(1), sess.UserID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	router, _ := newAuthFixture(t)

	rec := login(t, router, "ada@example.com", "wrong-pass-123")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	router, _ := newAuthFixture(t)

	rec := login(t, router, "ghost@example.com", "whatever-pass")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	router, _ := newAuthFixture(t)

	rec := login(t, router, "off@example.com", "s3cret-pass")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsMalformedPayload(t *testing.T) {
	router, _ := newAuthFixture(t)

	rec := login(t, router, "not-an-email", "short")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	router, sessions := newAuthFixture(t)

	rec := login(t, router, "ada@example.com", "s3cret-pass")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	out := httptest.NewRecorder()
	router.ServeHTTP(out, req)
	require.Equal(t, http.StatusNoContent, out.Code)

	probe := httptest.NewRequest(http.MethodGet, "/", nil)
	probe.Header.Set("Authorization", "Bearer "+resp.Token)
	sess, err := sessions.Resolve(context.Background(), probe)
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestLogoutRequiresSession(t *testing.T) {
	router, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
