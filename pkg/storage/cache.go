package storage

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/platinummonkey/crm/pkg/observability"
)

// CachedStore is a read-through, write-through LRU cache in front of another Store.
// Misses on the backing store are not cached.
type CachedStore struct {
	next    Store
	cache   *lru.LRU[string, []byte]
	metrics *observability.Metrics
}

// NewCachedStore wraps next with an expirable LRU of at most entries documents
func NewCachedStore(next Store, entries int, ttl time.Duration, metrics *observability.Metrics) *CachedStore {
	if entries < 1 {
		entries = 1
	}
	return &CachedStore{
		next:    next,
		cache:   lru.NewLRU[string, []byte](entries, nil, ttl),
		metrics: metrics,
	}
}

// Get implements Store.Get
func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := s.cache.Get(key); ok {
		s.metrics.RecordCacheHit("documents")
		return append([]byte(nil), data...), nil
	}
	s.metrics.RecordCacheMiss("documents")

	data, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, append([]byte(nil), data...))
	return data, nil
}

// Put implements Store.Put
func (s *CachedStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.next.Put(ctx, key, value); err != nil {
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, append([]byte(nil), value...))
	return nil
}

// Delete implements Store.Delete
func (s *CachedStore) Delete(ctx context.Context, key string) error {
	s.cache.Remove(key)
	return s.next.Delete(ctx, key)
}

// Ping forwards to the backing store when it supports health checks
func (s *CachedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close implements Store.Close
func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.next.Close()
}
