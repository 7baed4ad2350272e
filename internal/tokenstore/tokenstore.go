// Package tokenstore keeps short-lived verification and password-reset
// tokens in Redis. Bearer access tokens never land here; they are stateless.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Kind partitions the token key space.
type Kind string

const (
	KindVerification  Kind = "verify"
	KindPasswordReset Kind = "reset"
)

// ErrNotFound is returned when a token is unknown or already expired.
var ErrNotFound = errors.New("token not found")

// Store persists one-shot tokens with a TTL.
type Store interface {
	Put(ctx context.Context, kind Kind, token, userID string, ttl time.Duration) error
	Get(ctx context.Context, kind Kind, token string) (string, error)
	Delete(ctx context.Context, kind Kind, token string) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Redis-backed implementation.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func key(kind Kind, token string) string {
	return fmt.Sprintf("usermgmt:%s:%s", kind, token)
}

func (s *redisStore) Put(ctx context.Context, kind Kind, token, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, key(kind, token), userID, ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, kind Kind, token string) (string, error) {
	userID, err := s.client.Get(ctx, key(kind, token)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *redisStore) Delete(ctx context.Context, kind Kind, token string) error {
	return s.client.Del(ctx, key(kind, token)).Err()
}
