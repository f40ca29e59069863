package session

import (
	"context"
	"errors"
	"fmt"

	"pdfquery/internal/config"
	"pdfquery/internal/redis"
	"pdfquery/internal/storage"
)

// KeyPDFContent holds the extracted text of the last uploaded document.
const KeyPDFContent = "pdf_content"

// ErrNotFound is returned when a session or key is absent or expired.
var ErrNotFound = errors.New("session value not found")

// Store keeps per-session values with sliding expiry. Every successful Get or
// Set extends the lifetime of the whole session.
type Store interface {
	Get(ctx context.Context, id, key string) (string, error)
	Set(ctx context.Context, id, key, value string) error
	// Touch extends the session lifetime and reports whether it exists.
	Touch(ctx context.Context, id string) (bool, error)
}

// Purger is implemented by stores that need expired sessions removed
// explicitly. Redis expires keys on its own.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// NewStore builds the backend selected by cfg.Session.Backend. The returned
// close function releases the backend's connections.
func NewStore(cfg *config.Config) (Store, func() error, error) {
	ttl := cfg.Session.TTL
	switch cfg.Session.Backend {
	case "", "memory":
		return NewMemoryStore(ttl), func() error { return nil }, nil
	case "redis":
		client, err := redis.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis session store: %w", err)
		}
		return NewRedisStore(client, ttl), client.Close, nil
	case "sql":
		driver := cfg.Session.Database
		db, err := storage.Open(driver, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("init sql session store: %w", err)
		}
		if err := storage.Migrate(db, driver); err != nil {
			db.Close()
			return nil, nil, err
		}
		return NewSQLStore(db, driver, ttl), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend: %s", cfg.Session.Backend)
	}
}
