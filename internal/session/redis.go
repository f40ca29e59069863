package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pdfquery/internal/redis"
)

// RedisStore keeps each session in one redis hash whose TTL slides on access.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: "pdfquery:session:"}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id, key string) (string, error) {
	val, err := s.client.HGet(ctx, s.key(id), key, s.ttl)
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis session get: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, id, key, value string) error {
	if err := s.client.HSet(ctx, s.key(id), key, value, s.ttl); err != nil {
		return fmt.Errorf("redis session set: %w", err)
	}
	return nil
}

func (s *RedisStore) Touch(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.Expire(ctx, s.key(id), s.ttl)
	if err != nil {
		return false, fmt.Errorf("redis session touch: %w", err)
	}
	return ok, nil
}
