package session

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pdfquery/internal/config"
	"pdfquery/internal/redis"
	"pdfquery/internal/storage"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStoreOverwriteAndMissing(t *testing.T) {
	testStoreBasics(t, NewMemoryStore(time.Minute))
}

func TestSQLStoreOverwriteAndMissing(t *testing.T) {
	testStoreBasics(t, newSQLiteStore(t, time.Minute))
}

func TestRedisStoreOverwriteAndMissing(t *testing.T) {
	testStoreBasics(t, newRedisStore(t, time.Minute))
}

func testStoreBasics(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()

	_, err := store.Get(ctx, id, KeyPDFContent)
	require.ErrorIs(t, err, ErrNotFound)
	live, err := store.Touch(ctx, id)
	require.NoError(t, err)
	require.False(t, live)

	require.NoError(t, store.Set(ctx, id, KeyPDFContent, "first"))
	require.NoError(t, store.Set(ctx, id, KeyPDFContent, "second"))
	got, err := store.Get(ctx, id, KeyPDFContent)
	require.NoError(t, err)
	require.Equal(t, "second", got)

	_, err = store.Get(ctx, id, "other")
	require.ErrorIs(t, err, ErrNotFound)

	live, err = store.Touch(ctx, id)
	require.NoError(t, err)
	require.True(t, live)

	// sessions are isolated
	_, err = store.Get(ctx, uuid.NewString(), KeyPDFContent)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSlidingExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(30 * time.Minute)
	store.now = clock.Now
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", KeyPDFContent, "text"))
	clock.Advance(20 * time.Minute)
	_, err := store.Get(ctx, "a", KeyPDFContent)
	require.NoError(t, err)
	// the read above extended the session by another 30 minutes
	clock.Advance(20 * time.Minute)
	live, err := store.Touch(ctx, "a")
	require.NoError(t, err)
	require.True(t, live)

	clock.Advance(31 * time.Minute)
	_, err = store.Get(ctx, "a", KeyPDFContent)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 0, store.Len())
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(time.Minute)
	store.now = clock.Now
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "old", KeyPDFContent, "x"))
	clock.Advance(2 * time.Minute)
	require.NoError(t, store.Set(ctx, "new", KeyPDFContent, "y"))
	require.Equal(t, 1, store.Len())

	clock.Advance(2 * time.Minute)
	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, 0, store.Len())
}

func TestSQLStoreSlidingExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store := newSQLiteStore(t, 30*time.Minute)
	store.now = clock.Now
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", KeyPDFContent, "text"))
	require.NoError(t, store.Set(ctx, "b", KeyPDFContent, "text"))
	clock.Advance(25 * time.Minute)
	got, err := store.Get(ctx, "a", KeyPDFContent)
	require.NoError(t, err)
	require.Equal(t, "text", got)

	clock.Advance(10 * time.Minute)
	live, err := store.Touch(ctx, "a")
	require.NoError(t, err)
	require.True(t, live)
	live, err = store.Touch(ctx, "b")
	require.NoError(t, err)
	require.False(t, live)

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	clock.Advance(31 * time.Minute)
	_, err = store.Get(ctx, "a", KeyPDFContent)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewStoreBackends(t *testing.T) {
	cfg := &config.Config{Session: config.SessionConfig{Backend: "memory", TTL: time.Minute}}
	store, closeFn, err := NewStore(cfg)
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)
	require.NoError(t, closeFn())

	cfg = &config.Config{
		Session:   config.SessionConfig{Backend: "sql", Database: "sqlite3", TTL: time.Minute},
		Databases: map[string]config.DatabaseConfig{"sqlite3": {DSN: ":memory:"}},
	}
	store, closeFn, err = NewStore(cfg)
	require.NoError(t, err)
	require.IsType(t, &SQLStore{}, store)
	require.NoError(t, store.Set(context.Background(), "id", KeyPDFContent, "v"))
	require.NoError(t, closeFn())

	cfg = &config.Config{Session: config.SessionConfig{Backend: "etcd"}}
	_, _, err = NewStore(cfg)
	require.Error(t, err)
}

func newSQLiteStore(t *testing.T, ttl time.Duration) *SQLStore {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{"sqlite3": {DSN: ":memory:"}},
	}
	db, err := storage.Open("sqlite3", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.Migrate(db, "sqlite3"))
	return NewSQLStore(db, "sqlite3", ttl)
}

func newRedisStore(t *testing.T, ttl time.Duration) *RedisStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed session tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	client, err := redis.NewRedisClient(&config.Config{
		Redis: config.RedisConfig{Host: host, Port: port},
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl)
}
