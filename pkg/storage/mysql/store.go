// Package mysql provides a MySQL-backed SecureStore.
//
// Payloads are stored as BLOBs keyed by name, upserted via
// INSERT ... ON DUPLICATE KEY UPDATE.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// Store implements storage.SecureStore using MySQL as the backend.
type Store struct {
	db        *sql.DB
	tableName string
}

// Config contains configuration for creating a MySQL SecureStore.
type Config struct {
	// Host is the MySQL server host.
	Host string

	// Port is the MySQL server port.
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
}

// NewStore creates a new MySQL SecureStore and ensures the payload table
// exists.
func NewStore(cfg *Config) (*Store, error) {
	if cfg.TableName == "" {
		cfg.TableName = "secure_blobs"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql.NewStore: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("mysql.NewStore: %w", err)
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
			`+"`key`"+` VARCHAR(255) PRIMARY KEY,
			data LONGBLOB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("mysql.initTable: %w", err)
	}
	return nil
}

// Store persists data under key, replacing any previous value.
func (s *Store) Store(ctx context.Context, key string, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (`+"`key`"+`, data) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE data = VALUES(data)
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("mysql.Store: %w", err)
	}
	return nil
}

// Retrieve returns the data stored under key, or (nil, nil) when missing.
func (s *Store) Retrieve(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf("SELECT data FROM %s WHERE `key` = ?", s.tableName)

	var data []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mysql.Retrieve: %w", err)
	}
	return data, nil
}

// Delete removes the value stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE `key` = ?", s.tableName)

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("mysql.Delete: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
