package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Get when no document exists under the key
	ErrNotFound = errors.New("storage: key not found")

	// ErrInvalidKey is returned for keys that cannot be stored by a backend
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Store is a durable key-value store of whole documents
type Store interface {
	// Get returns the raw document under key or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the document under key
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes the document under key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// Close releases backend resources
	Close() error
}

// Pinger is implemented by stores backed by a remote service
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds storage configuration
type Config struct {
	Type string // memory, filesystem, redis, postgres, sqlite

	// Filesystem
	FilesystemRoot string

	// Redis
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisPrefix     string
	RedisMaxRetries int
	RedisPoolSize   int

	// PostgreSQL
	PostgresURL      string
	PostgresMaxConns int
	PostgresTimeout  time.Duration

	// SQLite
	SQLitePath string

	// Read-through cache
	CacheEnabled bool
	CacheEntries int
	CacheTTL     time.Duration
}

// DefaultConfig returns default storage configuration
func DefaultConfig() Config {
	return Config{
		Type:             "filesystem",
		FilesystemRoot:   "./crm-data",
		RedisURL:         "redis://localhost:6379/0",
		RedisDB:          -1,
		RedisPrefix:      "crm:",
		RedisMaxRetries:  3,
		RedisPoolSize:    10,
		PostgresMaxConns: 10,
		PostgresTimeout:  5 * time.Second,
		SQLitePath:       "./crm.db",
		CacheEnabled:     false,
		CacheEntries:     64,
		CacheTTL:         time.Minute,
	}
}

// Load decodes the JSON document under key into a T, returning def when the key is missing
func Load[T any](ctx context.Context, s Store, key string, def T) (T, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to load %s: %w", key, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return v, nil
}

// Save encodes v as JSON and replaces the document under key
func Save(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// validateKey rejects keys that would escape a namespace or directory
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
