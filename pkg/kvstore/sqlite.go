package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite implements Store on a single SQLite database. Counters and raw
// values share one table; increments ride on SQLite's per-statement
// atomicity, mirroring a networked counter store's INCRBYFLOAT.
type SQLite struct {
	db *sql.DB
}

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key TEXT PRIMARY KEY,
	value BLOB,
	num_value REAL NOT NULL DEFAULT 0,
	expires_at DATETIME
);
`

// NewSQLite opens or creates the store at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createKVTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	if expired(expiresAt) {
		return nil, false, nil
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   num_value = 0,
		   expires_at = excluded.expires_at`,
		key, value, expiryTime(ttl),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) IncrByFloat(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	// An expired row is absent: restart the counter from the delta
	// instead of resurrecting the stale value.
	var total float64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO kv_entries (key, num_value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   num_value = CASE
		     WHEN expires_at IS NOT NULL AND expires_at <= ?
		       THEN excluded.num_value
		     ELSE num_value + excluded.num_value
		   END,
		   expires_at = excluded.expires_at
		 RETURNING num_value`,
		key, delta, expiryTime(ttl), time.Now().UTC(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment %q: %w", key, err)
	}
	return total, nil
}

func (s *SQLite) GetFloat(ctx context.Context, key string) (float64, bool, error) {
	var value float64
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT num_value, expires_at FROM kv_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get counter %q: %w", key, err)
	}
	if expired(expiresAt) {
		return 0, false, nil
	}
	return value, true, nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Prune removes expired entries. Callers may run it periodically; reads
// already treat expired rows as absent.
func (s *SQLite) Prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("prune expired entries: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func expiryTime(ttl time.Duration) any {
	if ttl <= 0 {
		return nil
	}
	return time.Now().UTC().Add(ttl)
}

func expired(expiresAt sql.NullTime) bool {
	return expiresAt.Valid && !expiresAt.Time.After(time.Now().UTC())
}
