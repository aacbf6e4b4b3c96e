package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionStoreUnavailable reports that no session store was wired.
var ErrSessionStoreUnavailable = errors.New("shared: session store unavailable")

// SessionManager issues and resolves bearer tokens backed by Redis. The
// SPA client keeps the token and sends it in the Authorization header.
type SessionManager struct {
	client *redis.Client
	ttl    time.Duration
	secret []byte
}

// Session holds per-request session data.
type Session struct {
	Token  string
	userID string
	values map[string]string
	dirty  bool
}

type sessionPayload struct {
	UserID string            `json:"user_id"`
	Values map[string]string `json:"values,omitempty"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		client: client,
		ttl:    ttl,
		secret: []byte(secret),
	}
}

// Issue creates a new session for the user and persists it.
func (sm *SessionManager) Issue(ctx context.Context, userID string) (*Session, error) {
	sess := &Session{
		Token:  sm.generateToken(),
		userID: userID,
		values: make(map[string]string),
	}
	if err := sm.persist(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load resolves the bearer token on the request to a session. A missing or
// unknown token yields a nil session, not an error.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, nil
	}
	if sm.client == nil {
		return nil, ErrSessionStoreUnavailable
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
	return &Session{Token: token, userID: stored.UserID, values: stored.Values}, nil
}

// Commit persists session mutations and refreshes the TTL.
func (sm *SessionManager) Commit(ctx context.Context, sess *Session) error {
	if sess == nil || !sess.dirty {
		return nil
	}
	if err := sm.persist(ctx, sess); err != nil {
		return err
	}
	sess.dirty = false
	return nil
}

// Revoke deletes the session for the given token.
func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if sm.client == nil {
		return ErrSessionStoreUnavailable
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

func (sm *SessionManager) persist(ctx context.Context, sess *Session) error {
	if sm.client == nil {
		return ErrSessionStoreUnavailable
	}
	data, err := json.Marshal(sessionPayload{UserID: sess.userID, Values: sess.values})
	if err != nil {
		return err
	}
	return sm.client.Set(ctx, sm.redisKey(sess.Token), data, sm.ttl).Err()
}

// User returns the authenticated user ID.
func (s *Session) User() string {
	if s == nil {
		return ""
	}
	return s.userID
}

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

// redisKey derives the storage key as an HMAC of the token, so the
// store never holds raw bearer tokens.
func (sm *SessionManager) redisKey(token string) string {
	if len(sm.secret) == 0 {
		return "session:" + token
	}
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(token))
	return "session:" + hex.EncodeToString(mac.Sum(nil))
}

func (sm *SessionManager) generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
