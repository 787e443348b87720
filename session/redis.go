package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the credential triple under three prefixed Redis keys.
// Useful when several tools on one host share a session, or in kiosk
// deployments where local disk is not private.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore uses the given key prefix, typically one per user profile.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "workboard:session"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

func (s *RedisStore) Read(ctx context.Context) (Credentials, error) {
	access, err := s.client.Get(ctx, s.key(keyAccessToken)).Result()
	if err == redis.Nil {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read access token: %w", err)
	}
	refresh, err := s.client.Get(ctx, s.key(keyRefreshToken)).Result()
	if err != nil && err != redis.Nil {
		return Credentials{}, fmt.Errorf("read refresh token: %w", err)
	}
	identity, err := s.client.Get(ctx, s.key(keyIdentity)).Bytes()
	if err != nil && err != redis.Nil {
		return Credentials{}, fmt.Errorf("read identity: %w", err)
	}
	return Credentials{
		AccessToken:  access,
		RefreshToken: refresh,
		IdentityJSON: identity,
	}, nil
}

// Write stores the triple in one pipeline so readers never observe a
// partial session.
func (s *RedisStore) Write(ctx context.Context, c Credentials) error {
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(keyAccessToken), c.AccessToken, 0)
		pipe.Set(ctx, s.key(keyRefreshToken), c.RefreshToken, 0)
		pipe.Set(ctx, s.key(keyIdentity), c.IdentityJSON, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear deletes all three keys in one round-trip; idempotent.
func (s *RedisStore) Clear(ctx context.Context) error {
	err := s.client.Del(ctx,
		s.key(keyAccessToken),
		s.key(keyRefreshToken),
		s.key(keyIdentity),
	).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
