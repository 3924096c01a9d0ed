package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager issues and resolves bearer tokens backed by Redis.
type SessionManager struct {
	client *redis.Client
	ttl    time.Duration
}

// Session holds the authenticated principal for a request.
type Session struct {
	Token    string
	UserID   int64
	IssuedAt time.Time
}

type sessionPayload struct {
	UserID   int64     `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, ttl time.Duration) *SessionManager {
	return &SessionManager{client: client, ttl: ttl}
}

// Issue creates a session for the user and returns its token.
func (sm *SessionManager) Issue(ctx context.Context, userID int64) (*Session, error) {
	sess := &Session{
		Token:    generateToken(),
		UserID:   userID,
		IssuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(sessionPayload{UserID: sess.UserID, IssuedAt: sess.IssuedAt})
	if err != nil {
		return nil, err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.Token), data, sm.ttl).Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Resolve loads the session referenced by the request's bearer token.
// A missing or expired token yields a nil session, not an error.
func (sm *SessionManager) Resolve(ctx context.Context, r *http.Request) (*Session, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, nil
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}
	// Sliding expiration keeps active sessions alive.
	_ = sm.client.Expire(ctx, sm.redisKey(token), sm.ttl).Err()
	return &Session{Token: token, UserID: stored.UserID, IssuedAt: stored.IssuedAt}, nil
}

// Revoke deletes the session.
func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := sm.client.Del(ctx, sm.redisKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

func (sm *SessionManager) redisKey(token string) string {
	return "session:" + token
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func generateToken() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
