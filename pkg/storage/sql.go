package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Schema is the DDL for the documents table shared by the SQL backends
const Schema = `CREATE TABLE IF NOT EXISTS kv_documents (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLStore implements Store on a single kv_documents table.
// Placeholders use the $N form, which both lib/pq and go-sqlite3 accept.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle. The schema is not created.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenPostgres opens a PostgreSQL-backed store and ensures the schema exists
func OpenPostgres(ctx context.Context, config Config) (*SQLStore, error) {
	db, err := sql.Open("postgres", config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if config.PostgresMaxConns > 0 {
		db.SetMaxOpenConns(config.PostgresMaxConns)
		db.SetMaxIdleConns(config.PostgresMaxConns / 2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	return openSQL(ctx, db, config.PostgresTimeout)
}

// OpenSQLite opens a SQLite-backed store and ensures the schema exists
func OpenSQLite(ctx context.Context, config Config) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", config.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite serializes writers
	db.SetMaxOpenConns(1)

	return openSQL(ctx, db, 5*time.Second)
}

func openSQL(ctx context.Context, db *sql.DB, timeout time.Duration) (*SQLStore, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewSQLStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates the documents table if it does not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create kv_documents table: %w", err)
	}
	return nil
}

// Get implements Store.Get
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_documents WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return []byte(value), nil
}

// Put implements Store.Put
func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	query := `
		INSERT INTO kv_documents (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

// Delete implements Store.Delete
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_documents WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle
func (s *SQLStore) Close() error {
	return s.db.Close()
}
