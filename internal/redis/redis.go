package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"pdfquery/internal/config"

	redis "github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Client holds one go-redis connection pool. Every hash access also slides
// the key's expiry.
type Client struct {
	rdb *redis.Client
}

// ErrCacheMiss is returned by HGet for an absent key or field.
var ErrCacheMiss = redis.Nil

var errNoConnection = errors.New("redis: no connection")

// NewRedisClient connects using the redis section of cfg and pings the server.
func NewRedisClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("redis: nil config")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     address(cfg.Redis),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", address(cfg.Redis), err)
	}
	return &Client{rdb: rdb}, nil
}

func address(rc config.RedisConfig) string {
	host, port := rc.Host, rc.Port
	if host == "" {
		host = "127.0.0.1"
	}
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// HSet writes field and resets the hash expiry in one transaction.
func (c *Client) HSet(ctx context.Context, key, field, value string, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return errNoConnection
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field, value)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// HGet reads field and resets the hash expiry in one transaction.
func (c *Client) HGet(ctx context.Context, key, field string, ttl time.Duration) (string, error) {
	if c == nil || c.rdb == nil {
		return "", errNoConnection
	}
	var val *redis.StringCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		val = pipe.HGet(ctx, key, field)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return val.Result()
}

// Expire resets the expiry of key; false means the key does not exist.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, errNoConnection
	}
	return c.rdb.Expire(ctx, key, ttl).Result()
}

func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
