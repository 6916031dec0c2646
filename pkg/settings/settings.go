// Package settings persists per-application preferences.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/platinummonkey/crm/pkg/storage"
)

// StorageKey is the document key holding the settings
const StorageKey = "crmSettings"

// Settings are the preferences an administrator can change
type Settings struct {
	// RoundRobin spreads imported leads over assignable users instead of
	// assigning them to the importer
	RoundRobin bool `json:"roundRobin" yaml:"roundRobin"`
}

// Default returns the settings used before anything is saved
func Default() Settings {
	return Settings{RoundRobin: true}
}

// Store reads and writes the settings document
type Store struct {
	store storage.Store

	mu      sync.RWMutex
	current Settings
}

// NewStore creates a settings store holding the defaults until Load is called
func NewStore(store storage.Store) *Store {
	return &Store{store: store, current: Default()}
}

// Load reads the settings document, falling back to Default
func (s *Store) Load(ctx context.Context) error {
	loaded, err := storage.Load(ctx, s.store, StorageKey, Default())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return nil
}

// Get returns the current settings
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save replaces the whole settings document
func (s *Store) Save(ctx context.Context, next Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.Save(ctx, s.store, StorageKey, next); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	s.current = next
	return nil
}
