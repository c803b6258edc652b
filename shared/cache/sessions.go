package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavitra93/go-rental-management/shared/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// TokenSession is stored under the hash of the access token; the token
// itself is never stored.
type TokenSession struct {
	SessionID  string       `json:"session_id"`
	Actor      models.Actor `json:"actor"`
	CreatedAt  time.Time    `json:"created_at"`
	LastUsedAt time.Time    `json:"last_used_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
}

func (s *TokenSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type SessionStore struct {
	kv  KVStore
	ttl time.Duration
	now func() time.Time
}

func NewSessionStore(kv KVStore, ttl time.Duration) *SessionStore {
	return &SessionStore{kv: kv, ttl: ttl, now: time.Now}
}

func tokenKey(token string) string {
	hash := sha256.Sum256([]byte(token))
	return "token:session:" + hex.EncodeToString(hash[:])
}

// Create opens a session for token. The session expires with ttl or at
// tokenExpiry, whichever is sooner.
func (s *SessionStore) Create(ctx context.Context, token string, actor models.Actor, tokenExpiry time.Time) (*TokenSession, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expires) {
		expires = tokenExpiry
	}
	session := &TokenSession{
		SessionID:  uuid.NewString(),
		Actor:      actor,
		CreatedAt:  now,
		LastUsedAt: now,
		ExpiresAt:  expires,
	}
	if err := s.put(ctx, token, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) put(ctx context.Context, token string, session *TokenSession) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrSessionExpired
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.kv.Set(ctx, tokenKey(token), string(data), ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*TokenSession, error) {
	data, err := s.kv.Get(ctx, tokenKey(token))
	if errors.Is(err, ErrCacheMiss) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session TokenSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if session.IsExpired(s.now()) {
		_ = s.kv.Del(ctx, tokenKey(token))
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// Touch records use of the session and keeps its original expiry.
func (s *SessionStore) Touch(ctx context.Context, token string) (*TokenSession, error) {
	session, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	session.LastUsedAt = s.now()
	if err := s.put(ctx, token, session); err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateActor rewrites the actor stored in the session, used after a
// profile change.
func (s *SessionStore) UpdateActor(ctx context.Context, token string, actor models.Actor) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	session.Actor = actor
	return s.put(ctx, token, session)
}

func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if err := s.kv.Del(ctx, tokenKey(token)); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
