// Package seed loads initial CRM data from a YAML file.
//
// A seed only fills documents that have never been written, so restarting
// with the same file never overwrites live data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/platinummonkey/crm/pkg/records"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/platinummonkey/crm/pkg/users"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// File is the layout of a seed file
type File struct {
	Users   []users.UserAccount `yaml:"users"`
	Clients []records.Client    `yaml:"clients"`
	Leads   []records.Lead      `yaml:"leads"`
}

// LoadFile reads and parses a seed file
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes seed YAML. Roles accept the legacy names admin, sales and user.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// Targets are the stores a seed writes into
type Targets struct {
	Store     storage.Store
	Directory *users.Directory
	Clients   *records.ClientStore
	Leads     *records.LeadStore
}

// Apply writes each non-empty section of f whose document does not exist yet.
// It returns the keys it wrote.
func Apply(ctx context.Context, f *File, t Targets, log *logrus.Logger) ([]string, error) {
	if log == nil {
		log = logrus.New()
	}

	steps := []struct {
		key   string
		count int
		write func() error
	}{
		{users.StorageKey, len(f.Users), func() error { return t.Directory.Replace(ctx, f.Users) }},
		{records.ClientsKey, len(f.Clients), func() error { return t.Clients.Replace(ctx, f.Clients) }},
		{records.LeadsKey, len(f.Leads), func() error { return t.Leads.Replace(ctx, f.Leads) }},
	}

	var applied []string
	for _, step := range steps {
		if step.count == 0 {
			continue
		}
		_, err := t.Store.Get(ctx, step.key)
		if err == nil {
			log.WithField("key", step.key).Debug("Seed skipped, document exists")
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return applied, fmt.Errorf("failed to check %s: %w", step.key, err)
		}
		if err := step.write(); err != nil {
			return applied, fmt.Errorf("failed to seed %s: %w", step.key, err)
		}
		applied = append(applied, step.key)
		log.WithFields(logrus.Fields{"key": step.key, "count": step.count}).Info("Seeded document")
	}
	return applied, nil
}
