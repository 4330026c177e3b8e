// internal/domain/session/store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisdb "github.com/wawashop/storefront/internal/infrastructure/database/redis"
)

const keyPrefix = "storefront:session:"

// Store persists sessions in Redis with a sliding expiry
type Store struct {
	redis *redisdb.Client
	ttl   time.Duration
}

// NewStore creates a session store
func NewStore(redis *redisdb.Client, ttl time.Duration) *Store {
	return &Store{redis: redis, ttl: ttl}
}

func sessionKey(id string) string {
	return keyPrefix + id
}

// Save writes the user under its session id
func (s *Store) Save(ctx context.Context, user *User) error {
	if err := s.redis.SetJSON(ctx, sessionKey(user.SessionID), user, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get reads a session and extends its expiry
func (s *Store) Get(ctx context.Context, sessionID string) (*User, error) {
	var user User
	err := s.redis.GetJSON(ctx, sessionKey(sessionID), &user)
	if errors.Is(err, redisdb.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if err := s.redis.Expire(ctx, sessionKey(sessionID), s.ttl); err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return &user, nil
}

// Delete removes a session
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, sessionKey(sessionID))
}
