package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

// SessionStore maps browser session ids to signed-in uids.
// Key format: session:<session_id>
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a store whose entries expire after ttl of
// inactivity. Every Get slides the expiry.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Get returns the uid bound to sessionID or domain.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	uid, err := s.client.GetEx(ctx, s.key(sessionID), s.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrSessionNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	return uid, nil
}

func (s *SessionStore) Put(ctx context.Context, sessionID, uid string) error {
	if err := s.client.Set(ctx, s.key(sessionID), uid, s.ttl).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Delete removes the binding. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	return "session:" + sessionID
}

var _ ports.SessionStore = (*SessionStore)(nil)
