// Package postgres provides a PostgreSQL-backed SecureStore.
//
// Payloads are stored as BYTEA keyed by name, upserted via
// INSERT ... ON CONFLICT.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Store implements storage.SecureStore using PostgreSQL as the backend.
type Store struct {
	db        *sql.DB
	tableName string
}

// Config contains configuration for creating a PostgreSQL SecureStore.
type Config struct {
	// Host is the PostgreSQL server host.
	Host string

	// Port is the PostgreSQL server port.
	Port int

	// User is the database user.
	User string

	// Password is the database password.
	Password string

	// DBName is the database name.
	DBName string

	// TableName is the name of the table holding payloads.
	// Defaults to "secure_blobs".
	TableName string

	// SSLMode is the sslmode connection parameter (default "disable").
	SSLMode string
}

// NewStore creates a new PostgreSQL SecureStore and ensures the payload
// table exists.
func NewStore(cfg *Config) (*Store, error) {
	if cfg.TableName == "" {
		cfg.TableName = "secure_blobs"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.NewStore: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres.NewStore: %w", err)
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
			data BYTEA NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("postgres.initTable: %w", err)
	}
	return nil
}

// Store persists data under key, replacing any previous value.
func (s *Store) Store(ctx context.Context, key string, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, data, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("postgres.Store: %w", err)
	}
	return nil
}

// Retrieve returns the data stored under key, or (nil, nil) when missing.
func (s *Store) Retrieve(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf("SELECT data FROM %s WHERE key = $1", s.tableName)

	var data []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres.Retrieve: %w", err)
	}
	return data, nil
}

// Delete removes the value stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.tableName)

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("postgres.Delete: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
