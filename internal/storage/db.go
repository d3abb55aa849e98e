package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// KV is a small string key-value store, the local-storage of the client.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	SetMany(ctx context.Context, items map[string]string) error
	DeleteMany(ctx context.Context, keys ...string) error
	Close() error
}

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
// Parent directories of a file path are created as needed.
func NewDB(path string) (*DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, err
			}
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A second connection to ":memory:" would see an empty database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS local_storage (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value stored under key, or ErrNotFound.
func (db *DB) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM local_storage WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMany upserts all items in a single transaction.
func (db *DB) SetMany(ctx context.Context, items map[string]string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteMany removes the given keys. Missing keys are ignored.
func (db *DB) DeleteMany(ctx context.Context, keys ...string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM local_storage WHERE key = ?", key); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Open returns the SQLite store at path, or an in-memory map when path is empty.
func Open(path string) (KV, error) {
	if path == "" {
		return NewMemory(), nil
	}
	return NewDB(path)
}
