// Package storage is the durable client-side store. It holds exactly
// two records: the serialised session under "auth-storage" and the raw
// bearer token under "token", mirroring what the web dashboard kept in
// localStorage.
package storage

import (
	"database/sql"
	"errors"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// Fixed keys. The session store writes both; the HTTP adapter reads
// only TokenKey.
const (
	AuthKey  = "auth-storage"
	TokenKey = "token"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// Store wraps a sql.DB connection over a single key/value table.
type Store struct {
	conn *sql.DB
}

// Open opens the database at path (":memory:" for tests) and runs
// migrations.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	return err
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.conn.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.conn.Exec("DELETE FROM kv WHERE key = ?", key)
	return err
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
