package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS list_items (
	list_key TEXT NOT NULL,
	seq      INTEGER NOT NULL,
	value    BLOB NOT NULL,
	PRIMARY KEY (list_key, seq)
);
`

// SQLiteCache is a file-backed Cache for the command-line client. It plays
// the role browser local storage plays for the dashboard: one user, one
// machine, persisted across runs.
type SQLiteCache struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// OpenSQLite opens or creates the cache database at path and initializes the schema.
func OpenSQLite(path string) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteCache{db: db, dbPath: path, now: time.Now}, nil
}

// Path returns the database file location.
func (c *SQLiteCache) Path() string { return c.dbPath }

func (c *SQLiteCache) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLiteCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).UnixNano()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	if expiresAt != 0 && c.now().UnixNano() >= expiresAt {
		_, _ = c.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
		return nil, false, nil
	}
	return value, true, nil
}

func (c *SQLiteCache) Delete(ctx context.Context, keys ...string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_key = ?`, k); err != nil {
			return fmt.Errorf("delete list %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (c *SQLiteCache) PushCapped(ctx context.Context, key string, value []byte, max int) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin push: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM list_items WHERE list_key = ?`, key,
	).Scan(&next); err != nil {
		return fmt.Errorf("next seq %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO list_items (list_key, seq, value) VALUES (?, ?, ?)`, key, next, value); err != nil {
		return fmt.Errorf("push %s: %w", key, err)
	}

	if max > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM list_items WHERE list_key = ? AND seq NOT IN (
				SELECT seq FROM list_items WHERE list_key = ? ORDER BY seq DESC LIMIT ?
			)`, key, key, max); err != nil {
			return fmt.Errorf("trim %s: %w", key, err)
		}
	}

	return tx.Commit()
}

func (c *SQLiteCache) Range(ctx context.Context, key string) ([][]byte, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT value FROM list_items WHERE list_key = ? ORDER BY seq DESC`, key)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", key, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", key, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (c *SQLiteCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin incr: %w", err)
	}
	defer tx.Rollback()

	now := c.now()
	deadline := now.Add(expiry).UnixNano()
	var n int64
	var raw []byte
	var expiresAt int64
	err = tx.QueryRowContext(ctx, `SELECT value, expires_at FROM kv WHERE key = ?`, key).Scan(&raw, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return 0, fmt.Errorf("incr %s: %w", key, err)
	case expiresAt == 0:
		n, _ = strconv.ParseInt(string(raw), 10, 64)
	case now.UnixNano() < expiresAt:
		n, _ = strconv.ParseInt(string(raw), 10, 64)
		deadline = expiresAt
	}
	n++

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, []byte(strconv.FormatInt(n, 10)), deadline); err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

var _ Cache = (*SQLiteCache)(nil)
