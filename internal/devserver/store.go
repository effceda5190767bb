// Package devserver implements a local key-value API server backed by
// SQLite, speaking the same wire surface as the remote store so clients
// can develop against it without network access or credentials.
package devserver

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	metadata   TEXT,
	expires_at INTEGER,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

var errBadCursor = errors.New("devserver: invalid cursor")

// Store persists key-value entries in a SQLite database.
type Store struct {
	conn *sql.DB
}

// Entry is one stored key-value row. An ExpiresAt of zero means the entry
// never expires.
type Entry struct {
	Key       string
	Value     []byte
	Metadata  json.RawMessage
	ExpiresAt int64
}

// KeyRow describes one key in a listing.
type KeyRow struct {
	Name      string
	ExpiresAt int64
	Metadata  json.RawMessage
}

// OpenStore opens (or creates) the SQLite database at path and applies the
// schema.
func OpenStore(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", storeDSN(path))
	if err != nil {
		return nil, fmt.Errorf("devserver: open store: %w", err)
	}
	if path == ":memory:" {
		// A shared in-memory database vanishes when its last connection
		// closes, so the pool is pinned to a single connection.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("devserver: ping store: %w", err)
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("devserver: apply schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

func storeDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?mode=memory&cache=shared&_busy_timeout=5000"
	}
	return path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Get returns the entry for key, or nil when the key is absent. Expired
// entries are purged on read and reported as absent.
func (s *Store) Get(key string) (*Entry, error) {
	var (
		e       Entry
		meta    sql.NullString
		expires sql.NullInt64
	)
	err := s.conn.QueryRow(
		`SELECT key, value, metadata, expires_at FROM kv_entries WHERE key = ?`, key,
	).Scan(&e.Key, &e.Value, &meta, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("devserver: get %q: %w", key, err)
	}

	if expires.Valid {
		e.ExpiresAt = expires.Int64
	}
	if e.ExpiresAt > 0 && e.ExpiresAt <= time.Now().Unix() {
		_, _ = s.conn.Exec(`DELETE FROM kv_entries WHERE key = ?`, key)
		return nil, nil
	}
	if meta.Valid {
		e.Metadata = json.RawMessage(meta.String)
	}
	return &e, nil
}

// Put inserts or replaces the entry for key. A ttlSeconds of zero stores
// the value without expiry.
func (s *Store) Put(key string, value []byte, ttlSeconds uint64, metadata json.RawMessage) error {
	var expires any
	if ttlSeconds > 0 {
		expires = time.Now().Unix() + int64(ttlSeconds)
	}
	var meta any
	if len(metadata) > 0 {
		meta = string(metadata)
	}

	_, err := s.conn.Exec(`
		INSERT INTO kv_entries (key, value, metadata, expires_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			metadata   = excluded.metadata,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, key, value, meta, expires)
	if err != nil {
		return fmt.Errorf("devserver: put %q: %w", key, err)
	}
	return nil
}

// Delete removes key, reporting whether it existed.
func (s *Store) Delete(key string) (bool, error) {
	res, err := s.conn.Exec(`DELETE FROM kv_entries WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("devserver: delete %q: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("devserver: delete %q: %w", key, err)
	}
	return affected > 0, nil
}

// DeleteMany removes all given keys in a single transaction. Keys that do
// not exist are skipped silently.
func (s *Store) DeleteMany(keys []string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("devserver: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is best-effort on the failure path

	stmt, err := tx.Prepare(`DELETE FROM kv_entries WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("devserver: prepare delete: %w", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.Exec(key); err != nil {
			return fmt.Errorf("devserver: delete %q: %w", key, err)
		}
	}

	return tx.Commit()
}

// ListKeys returns up to limit live keys in lexical order, restricted to
// prefix when non-empty and starting after the opaque cursor. The returned
// cursor is empty when no keys remain.
func (s *Store) ListKeys(prefix, cursor string, limit int) ([]KeyRow, string, error) {
	after := ""
	if cursor != "" {
		decoded, err := base64.RawURLEncoding.DecodeString(cursor)
		if err != nil {
			return nil, "", errBadCursor
		}
		after = string(decoded)
	}

	rows, err := s.conn.Query(`
		SELECT key, expires_at, metadata FROM kv_entries
		WHERE key > ?
		  AND substr(key, 1, ?) = ?
		  AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY key
		LIMIT ?
	`, after, len(prefix), prefix, time.Now().Unix(), limit+1)
	if err != nil {
		return nil, "", fmt.Errorf("devserver: list keys: %w", err)
	}
	defer rows.Close()

	out := []KeyRow{}
	for rows.Next() {
		var (
			row     KeyRow
			meta    sql.NullString
			expires sql.NullInt64
		)
		if err := rows.Scan(&row.Name, &expires, &meta); err != nil {
			return nil, "", fmt.Errorf("devserver: scan key: %w", err)
		}
		if expires.Valid {
			row.ExpiresAt = expires.Int64
		}
		if meta.Valid {
			row.Metadata = json.RawMessage(meta.String)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("devserver: list keys: %w", err)
	}

	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = base64.RawURLEncoding.EncodeToString([]byte(out[len(out)-1].Name))
	}
	return out, next, nil
}
