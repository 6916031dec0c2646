package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/records"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/platinummonkey/crm/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSeed = `
users:
  - id: "1"
    email: admin@crm.com
    password: admin123
    role: admin
    name: Admin User
  - id: "2"
    email: sales@crm.com
    password: sales123
    role: sales
    name: Sales Manager
clients:
  - id: "1"
    name: John Smith
    company: Tech Solutions Inc.
    email: john.smith@techsolutions.com
    location: New York, USA
    status: active
    createdAt: 2024-01-15T00:00:00Z
leads:
  - id: "1"
    leadName: Alex Thompson
    company: Thompson Enterprises
    email: alex.thompson@email.com
    source: Website
    status: not-started
    assignedTo: sales@crm.com
    createdAt: 2025-08-01T10:00:00Z
`

func targets(store storage.Store) Targets {
	log := observability.NewNopLogger()
	return Targets{
		Store:     store,
		Directory: users.NewDirectory(store, log),
		Clients:   records.NewClientStore(store, log),
		Leads:     records.NewLeadStore(store, log),
	}
}

func TestParse_LegacyRoles(t *testing.T) {
	f, err := Parse([]byte(sampleSeed))
	require.NoError(t, err)

	require.Len(t, f.Users, 2)
	assert.Equal(t, users.RoleSuperAdmin, f.Users[0].Role)
	assert.Equal(t, users.RoleLead, f.Users[1].Role)
	assert.Equal(t, "admin123", f.Users[0].Credential)

	require.Len(t, f.Clients, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), f.Clients[0].CreatedAt.UTC())
	require.Len(t, f.Leads, 1)
	assert.Equal(t, records.StatusNotStarted, f.Leads[0].Status)
}

func TestParse_InvalidRole(t *testing.T) {
	_, err := Parse([]byte("users:\n  - email: a@b.io\n    role: owner\n"))
	assert.Error(t, err)
}

func TestApply_FillsOnlyMissingDocuments(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, storage.Save(ctx, store, records.ClientsKey, []records.Client{}))

	f, err := Parse([]byte(sampleSeed))
	require.NoError(t, err)

	tg := targets(store)
	applied, err := Apply(ctx, f, tg, observability.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{users.StorageKey, records.LeadsKey}, applied)

	assert.Len(t, tg.Directory.List(), 2)
	assert.Empty(t, tg.Clients.List())
	leads := tg.Leads.List()
	require.Len(t, leads, 1)
	assert.NotNil(t, leads[0].CallHistory)

	applied, err = Apply(ctx, f, targets(store), nil)
	require.NoError(t, err)
	assert.Empty(t, applied, "a second run changes nothing")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSeed), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Users, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
