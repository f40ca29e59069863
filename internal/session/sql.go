package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pdfquery/internal/storage"
)

// SQLStore persists session values in the session_values table created by
// storage.Migrate.
type SQLStore struct {
	db     *sql.DB
	driver string
	ttl    time.Duration
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string, ttl time.Duration) *SQLStore {
	return &SQLStore{db: db, driver: storage.Dialect(driver), ttl: ttl, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, id, key string) (string, error) {
	var (
		value     string
		expiresAt int64
	)
	row := s.db.QueryRowContext(ctx,
		storage.Rebind(s.driver, `SELECT value, expires_at FROM session_values WHERE session_id = ? AND name = ?`),
		id, key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("sql session get: %w", err)
	}
	now := s.now()
	if expiresAt <= now.UnixMilli() {
		if _, err := s.db.ExecContext(ctx,
			storage.Rebind(s.driver, `DELETE FROM session_values WHERE session_id = ?`), id); err != nil {
			return "", fmt.Errorf("sql session expire: %w", err)
		}
		return "", ErrNotFound
	}
	if err := s.extend(ctx, id, now); err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, id, key, value string) error {
	now := s.now()
	var query string
	switch s.driver {
	case "mysql":
		query = `INSERT INTO session_values (session_id, name, value, updated_at, expires_at)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at), expires_at = VALUES(expires_at)`
	default:
		query = `INSERT INTO session_values (session_id, name, value, updated_at, expires_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (session_id, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at, expires_at = excluded.expires_at`
	}
	expiresAt := now.Add(s.ttl).UnixMilli()
	if _, err := s.db.ExecContext(ctx, storage.Rebind(s.driver, query),
		id, key, value, now.UnixMilli(), expiresAt); err != nil {
		return fmt.Errorf("sql session set: %w", err)
	}
	return s.extend(ctx, id, now)
}

func (s *SQLStore) Touch(ctx context.Context, id string) (bool, error) {
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		storage.Rebind(s.driver, `UPDATE session_values SET expires_at = ? WHERE session_id = ? AND expires_at > ?`),
		now.Add(s.ttl).UnixMilli(), id, now.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("sql session touch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sql session touch: %w", err)
	}
	return n > 0, nil
}

// PurgeExpired deletes every expired row and returns how many were removed.
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		storage.Rebind(s.driver, `DELETE FROM session_values WHERE expires_at <= ?`), s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) extend(ctx context.Context, id string, now time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		storage.Rebind(s.driver, `UPDATE session_values SET expires_at = ? WHERE session_id = ?`),
		now.Add(s.ttl).UnixMilli(), id); err != nil {
		return fmt.Errorf("sql session extend: %w", err)
	}
	return nil
}
