//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresStore starts a PostgreSQL container and opens a store against it
func setupPostgresStore(t *testing.T) (*SQLStore, func()) {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("crm_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	config := DefaultConfig()
	config.Type = "postgres"
	config.PostgresURL = connStr

	store, err := OpenPostgres(ctx, config)
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := postgresContainer.Terminate(cleanupCtx); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
	return store, cleanup
}

func TestSQLStore_Postgres(t *testing.T) {
	store, cleanup := setupPostgresStore(t)
	defer cleanup()

	storeContract(t, store)

	// migrating an existing schema is a no-op
	require.NoError(t, store.Migrate(context.Background()))
}
