package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStoreTest creates a miniredis instance and returns the store and cleanup function
func setupRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	config := DefaultConfig()
	config.RedisURL = "redis://" + mr.Addr()
	config.RedisDB = 0
	config.RedisPrefix = "crm:"

	store, err := NewRedisStore(config)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create Redis store: %v", err)
	}

	cleanup := func() {
		store.Close()
		mr.Close()
	}
	return store, mr, cleanup
}

func TestRedisStore(t *testing.T) {
	store, _, cleanup := setupRedisStoreTest(t)
	defer cleanup()

	storeContract(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	store, mr, cleanup := setupRedisStoreTest(t)
	defer cleanup()

	require.NoError(t, store.Put(context.Background(), "crmLeads", []byte(`[]`)))

	value, err := mr.Get("crm:crmLeads")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)
	assert.False(t, mr.Exists("crmLeads"))
}

func TestRedisStore_NoExpiry(t *testing.T) {
	store, mr, cleanup := setupRedisStoreTest(t)
	defer cleanup()

	require.NoError(t, store.Put(context.Background(), "crmUsers", []byte(`[]`)))
	assert.Zero(t, mr.TTL("crm:crmUsers"))
}

func TestRedisStore_Ping(t *testing.T) {
	store, mr, cleanup := setupRedisStoreTest(t)
	defer cleanup()

	assert.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}

func TestNewRedisStore_Errors(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		config := DefaultConfig()
		config.RedisURL = "://bad"
		_, err := NewRedisStore(config)
		assert.Error(t, err)
	})

	t.Run("unreachable server", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		addr := mr.Addr()
		mr.Close()

		config := DefaultConfig()
		config.RedisURL = "redis://" + addr
		config.RedisMaxRetries = 1
		_, err = NewRedisStore(config)
		assert.Error(t, err)
	})
}

func TestRedisStore_GetServerError(t *testing.T) {
	store, mr, cleanup := setupRedisStoreTest(t)
	defer cleanup()

	mr.SetError("ERR backend failure")
	_, err := store.Get(context.Background(), "crmLeads")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
