// Package sqlite provides a SQLite-backed SecureStore.
//
// SQLite is the on-device default: a single file, no server, WAL journaling.
// Payloads are stored as BLOBs keyed by name.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements storage.SecureStore using SQLite as the backend.
type Store struct {
	db        *sql.DB
	tableName string
}

// Config contains configuration for creating a SQLite SecureStore.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the name of the table holding payloads.
	// Defaults to "secure_blobs".
	TableName string
}

// NewStore creates a new SQLite SecureStore.
//
// The parent directory of DBPath is created if it does not exist, and the
// payload table is created on first use.
func NewStore(cfg *Config) (*Store, error) {
	if cfg.TableName == "" {
		cfg.TableName = "secure_blobs"
	}

	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite.NewStore: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewStore: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite.NewStore: %w", err)
	}

	store := &Store{db: db, tableName: cfg.TableName}
	if err := store.initTable(context.Background()); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) initTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sqlite.initTable: %w", err)
	}
	return nil
}

// Store persists data under key, replacing any previous value.
func (s *Store) Store(ctx context.Context, key string, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("sqlite.Store: %w", err)
	}
	return nil
}

// Retrieve returns the data stored under key, or (nil, nil) when missing.
func (s *Store) Retrieve(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf("SELECT data FROM %s WHERE key = ?", s.tableName)

	var data []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite.Retrieve: %w", err)
	}
	return data, nil
}

// Delete removes the value stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = ?", s.tableName)

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("sqlite.Delete: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
