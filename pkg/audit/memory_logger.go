package audit

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity is how many events a MemoryLogger keeps when none is given
const DefaultMemoryCapacity = 500

// MemoryLogger keeps the most recent events in a ring buffer
type MemoryLogger struct {
	mu     sync.RWMutex
	events []*Event
	next   int
	full   bool
}

// NewMemoryLogger creates a logger holding up to capacity events
func NewMemoryLogger(capacity int) *MemoryLogger {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryLogger{events: make([]*Event, capacity)}
}

// Log stores a copy of event, evicting the oldest when full
func (m *MemoryLogger) Log(_ context.Context, event *Event) error {
	stored := *event
	if event.Metadata != nil {
		stored.Metadata = make(map[string]interface{}, len(event.Metadata))
		for k, v := range event.Metadata {
			stored.Metadata[k] = v
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[m.next] = &stored
	m.next = (m.next + 1) % len(m.events)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Events returns the events matching filter, newest first
func (m *MemoryLogger) Events(filter Filter) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := m.next
	if m.full {
		count = len(m.events)
	}

	var out []Event
	for i := 0; i < count; i++ {
		idx := (m.next - 1 - i + len(m.events)) % len(m.events)
		event := m.events[idx]
		if !filter.Match(event) {
			continue
		}
		out = append(out, *event)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// Close is a no-op
func (m *MemoryLogger) Close() error {
	return nil
}
