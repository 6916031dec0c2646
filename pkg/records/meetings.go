package records

import (
	"context"
	"fmt"
	"sync"

	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/sirupsen/logrus"
)

// MeetingsKey is the document key holding completed leads
const MeetingsKey = "crmMeetings"

// MeetingStore holds completed leads, most recently completed first.
// Meetings enter and leave only through a Pipeline.
type MeetingStore struct {
	store storage.Store
	log   *logrus.Logger

	mu       sync.RWMutex
	meetings []Meeting
}

// NewMeetingStore creates an empty meeting store over store
func NewMeetingStore(store storage.Store, log *logrus.Logger) *MeetingStore {
	if log == nil {
		log = logrus.New()
	}
	return &MeetingStore{store: store, log: log}
}

// Load reads the meetings document; a missing document means no meetings
func (s *MeetingStore) Load(ctx context.Context) error {
	meetings, err := storage.Load(ctx, s.store, MeetingsKey, []Meeting{})
	if err != nil {
		return fmt.Errorf("failed to load meetings: %w", err)
	}

	s.mu.Lock()
	s.meetings = meetings
	s.mu.Unlock()

	s.log.WithField("meetings", len(meetings)).Debug("Meetings loaded")
	return nil
}

// List returns a copy of every meeting
func (s *MeetingStore) List() []Meeting {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Meeting, len(s.meetings))
	for i, m := range s.meetings {
		m.Lead = m.Lead.clone()
		out[i] = m
	}
	return out
}

// Get returns the meeting with the given ID
func (s *MeetingStore) Get(id string) (Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		m := s.meetings[idx]
		m.Lead = m.Lead.clone()
		return m, nil
	}
	return Meeting{}, fmt.Errorf("%w: meeting %s", ErrNotFound, id)
}

func (s *MeetingStore) indexOf(id string) int {
	for i, m := range s.meetings {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *MeetingStore) persist(ctx context.Context, meetings []Meeting) error {
	if err := storage.Save(ctx, s.store, MeetingsKey, meetings); err != nil {
		return fmt.Errorf("failed to persist meetings: %w", err)
	}
	return nil
}
