// Package storage provides the durable key-value layer behind the CRM.
//
// # Overview
//
// Every collection the CRM keeps (users, accounts, leads, meetings, settings and the
// active session) is stored as one JSON document under a fixed key. Writes replace the
// whole document; reads of a missing key fall back to a caller-supplied default.
//
// # Backends
//
//   - memory: process-local map, used by tests and throwaway demos
//   - filesystem: one JSON file per key under a root directory
//   - redis: one string value per key, optionally namespaced with a prefix
//   - postgres / sqlite: a single kv_documents table
//
// Any backend can be wrapped with an LRU read-through cache (CachedStore) and with
// Prometheus instrumentation (InstrumentedStore). Open assembles the stack from a Config.
//
// # Usage Example
//
//	store, err := storage.Open(ctx, storage.DefaultConfig(), metrics)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	leads, err := storage.Load(ctx, store, "crmLeads", []records.Lead{})
//	...
//	err = storage.Save(ctx, store, "crmLeads", leads)
//
// # Related Packages
//
//   - pkg/records: lead, account and meeting documents
//   - pkg/users: the user directory document
//   - pkg/config: CRM_STORAGE_* environment configuration
package storage
