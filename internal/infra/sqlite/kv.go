package sqlite

import (
	"database/sql"
	"errors"
	"time"
)

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Independent string-valued entries, namespaced by key
		`CREATE TABLE IF NOT EXISTS kv_entries (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
}

// ─── Key-Value Operations ───────────────────────────────────────────────────

// GetValue returns the value stored under key and whether it exists.
func (db *DB) GetValue(key string) (string, bool, error) {
	var value string
	err := db.db.QueryRow(`SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetValue inserts or replaces the value under key.
func (db *DB) SetValue(key, value string) error {
	_, err := db.db.Exec(`
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = datetime('now')
	`, key, value)
	return err
}

// DeleteValue removes key. Deleting a missing key is not an error.
func (db *DB) DeleteValue(key string) error {
	_, err := db.db.Exec(`DELETE FROM kv_entries WHERE key = ?`, key)
	return err
}

// Entry is a raw stored row.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// ListEntries returns all rows ordered by key.
func (db *DB) ListEntries() ([]Entry, error) {
	rows, err := db.db.Query(`SELECT key, value, updated_at FROM kv_entries ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		var updatedStr string
		if err := rows.Scan(&e.Key, &e.Value, &updatedStr); err != nil {
			return nil, err
		}
		e.UpdatedAt, _ = time.Parse("2006-01-02 15:04:05", updatedStr)
		result = append(result, e)
	}
	return result, rows.Err()
}
