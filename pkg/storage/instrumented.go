package storage

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/crm/pkg/observability"
)

// InstrumentedStore records operation counts and latency for another Store
type InstrumentedStore struct {
	next    Store
	metrics *observability.Metrics
}

// NewInstrumentedStore wraps next with Prometheus instrumentation
func NewInstrumentedStore(next Store, metrics *observability.Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, metrics: metrics}
}

// Get implements Store.Get. A missing key counts as a successful lookup.
func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := s.next.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		s.metrics.RecordStorageOperation("get", time.Since(start), nil)
		return nil, err
	}
	s.metrics.RecordStorageOperation("get", time.Since(start), err)
	return data, err
}

// Put implements Store.Put
func (s *InstrumentedStore) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.next.Put(ctx, key, value)
	s.metrics.RecordStorageOperation("put", time.Since(start), err)
	return err
}

// Delete implements Store.Delete
func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.metrics.RecordStorageOperation("delete", time.Since(start), err)
	return err
}

// Ping forwards to the backing store when it supports health checks
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close implements Store.Close
func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}
