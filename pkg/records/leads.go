package records

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/crm/pkg/assignment"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/sirupsen/logrus"
)

// LeadsKey is the document key holding the active leads
const LeadsKey = "crmLeads"

// LeadPatch holds the fields to change on a lead; nil fields are left as-is
type LeadPatch struct {
	LeadName   *string     `json:"leadName,omitempty"`
	Company    *string     `json:"company,omitempty"`
	Contact    *string     `json:"contact,omitempty"`
	Email      *string     `json:"email,omitempty"`
	Source     *string     `json:"source,omitempty"`
	Status     *LeadStatus `json:"status,omitempty"`
	AssignedTo *string     `json:"assignedTo,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
}

func (p LeadPatch) apply(l *Lead) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&l.LeadName, p.LeadName)
	set(&l.Company, p.Company)
	set(&l.Contact, p.Contact)
	set(&l.Email, p.Email)
	set(&l.Source, p.Source)
	set(&l.AssignedTo, p.AssignedTo)
	set(&l.Notes, p.Notes)
	if p.Status != nil {
		l.Status = *p.Status
	}
}

// LeadStore holds the active leads, newest first. Every mutation rewrites the
// whole document; a failed write leaves the in-memory list unchanged.
type LeadStore struct {
	store storage.Store
	log   *logrus.Logger
	now   func() time.Time

	mu    sync.RWMutex
	leads []Lead
}

// NewLeadStore creates an empty lead store over store
func NewLeadStore(store storage.Store, log *logrus.Logger) *LeadStore {
	if log == nil {
		log = logrus.New()
	}
	return &LeadStore{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Load reads the leads document; a missing document means no leads
func (s *LeadStore) Load(ctx context.Context) error {
	leads, err := storage.Load(ctx, s.store, LeadsKey, []Lead{})
	if err != nil {
		return fmt.Errorf("failed to load leads: %w", err)
	}

	s.mu.Lock()
	s.leads = leads
	s.mu.Unlock()

	s.log.WithField("leads", len(leads)).Debug("Leads loaded")
	return nil
}

// List returns a copy of every lead, newest first
func (s *LeadStore) List() []Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Lead, len(s.leads))
	for i, l := range s.leads {
		out[i] = l.clone()
	}
	return out
}

// Get returns the lead with the given ID
func (s *LeadStore) Get(id string) (Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.leads[idx].clone(), nil
	}
	return Lead{}, fmt.Errorf("%w: lead %s", ErrNotFound, id)
}

// Add validates a new lead, fills its defaults and puts it at the front
func (s *LeadStore) Add(ctx context.Context, lead Lead) (Lead, error) {
	added, err := s.AddMany(ctx, []Lead{lead})
	if err != nil {
		return Lead{}, err
	}
	return added[0], nil
}

// AddMany adds a batch of leads in one write. The batch keeps its order and
// goes in front of the existing leads. One invalid lead rejects the batch.
func (s *LeadStore) AddMany(ctx context.Context, batch []Lead) ([]Lead, error) {
	if len(batch) == 0 {
		return []Lead{}, nil
	}
	prepared, err := s.prepare(batch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Lead, 0, len(prepared)+len(s.leads))
	next = append(next, prepared...)
	next = append(next, s.leads...)
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.leads = next

	s.log.WithField("count", len(prepared)).Info("Leads added")

	out := make([]Lead, len(prepared))
	for i, l := range prepared {
		out[i] = l.clone()
	}
	return out, nil
}

// Update applies patch to a lead in place and appends historyLog, if given, to its call history
func (s *LeadStore) Update(ctx context.Context, id string, patch LeadPatch, historyLog *CallEvent) (Lead, error) {
	if patch.Status != nil && *patch.Status == StatusCompleted {
		return Lead{}, fmt.Errorf("%w: completing a lead moves it to meetings", ErrInvalidStatus)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return Lead{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *patch.Status)
	}

	return s.mutate(ctx, id, func(l *Lead) error {
		patch.apply(l)
		if err := requireFields(
			[2]string{"leadName", l.LeadName},
			[2]string{"company", l.Company},
			[2]string{"email", l.Email},
		); err != nil {
			return err
		}
		if historyLog != nil {
			l.CallHistory = append(l.CallHistory, s.event(*historyLog))
		}
		return nil
	})
}

// SetStatus changes a lead's status in place. Completion is a move between
// collections and goes through Pipeline.Complete.
func (s *LeadStore) SetStatus(ctx context.Context, id string, status LeadStatus) (Lead, error) {
	return s.Update(ctx, id, LeadPatch{Status: &status}, nil)
}

// LogCall appends a call to the lead's history and marks it in progress
func (s *LeadStore) LogCall(ctx context.Context, id, notes string, nextFollowUp *time.Time) (Lead, error) {
	return s.mutate(ctx, id, func(l *Lead) error {
		l.CallHistory = append(l.CallHistory, s.event(CallEvent{
			Notes:        notes,
			NextFollowUp: nextFollowUp,
			Type:         CallTypeCall,
		}))
		l.Status = StatusInProgress
		return nil
	})
}

// Delete removes a lead
func (s *LeadStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: lead %s", ErrNotFound, id)
	}

	next := make([]Lead, 0, len(s.leads)-1)
	next = append(next, s.leads[:idx]...)
	next = append(next, s.leads[idx+1:]...)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.leads = next

	s.log.WithField("lead_id", id).Info("Lead deleted")
	return nil
}

// Assign hands the listed leads to email without checking the email against
// the directory. Unknown IDs are skipped. It returns the number of leads changed.
func (s *LeadStore) Assign(ctx context.Context, ids []string, email string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLeads()
	ptrs := make([]*Lead, len(next))
	for i := range next {
		ptrs[i] = &next[i]
	}
	changed := assignment.ManualAssign(ptrs, ids, email)
	if changed == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, next); err != nil {
		return 0, err
	}
	s.leads = next

	s.log.WithFields(logrus.Fields{"count": changed, "assignee": email}).Info("Leads assigned")
	return changed, nil
}

// Replace swaps in a whole lead list, used by seeding. Leads get the same
// defaults as Add.
func (s *LeadStore) Replace(ctx context.Context, leads []Lead) error {
	prepared, err := s.prepare(leads)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, prepared); err != nil {
		return err
	}
	s.leads = prepared
	return nil
}

// Edit opens a draft of the lead. Nothing changes until the draft is saved.
func (s *LeadStore) Edit(id string) (*LeadDraft, error) {
	lead, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return &LeadDraft{store: s, id: id, Lead: lead}, nil
}

func (s *LeadStore) prepare(batch []Lead) ([]Lead, error) {
	now := s.now()
	prepared := make([]Lead, len(batch))
	for i, lead := range batch {
		if err := requireFields(
			[2]string{"leadName", lead.LeadName},
			[2]string{"company", lead.Company},
			[2]string{"email", lead.Email},
		); err != nil {
			return nil, err
		}
		if lead.ID == "" {
			lead.ID = uuid.NewString()
		}
		if lead.Status == "" {
			lead.Status = StatusNotStarted
		}
		if !lead.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, lead.Status)
		}
		if lead.CreatedAt.IsZero() {
			lead.CreatedAt = now
		}
		if lead.CallHistory == nil {
			lead.CallHistory = []CallEvent{}
		}
		prepared[i] = lead
	}
	return prepared, nil
}

func (s *LeadStore) mutate(ctx context.Context, id string, fn func(*Lead) error) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Lead{}, fmt.Errorf("%w: lead %s", ErrNotFound, id)
	}

	next := s.copyLeads()
	if err := fn(&next[idx]); err != nil {
		return Lead{}, err
	}
	if err := s.persist(ctx, next); err != nil {
		return Lead{}, err
	}
	s.leads = next

	s.log.WithField("lead_id", id).Debug("Lead updated")
	return next[idx].clone(), nil
}

func (s *LeadStore) event(e CallEvent) CallEvent {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	if e.Type == "" {
		e.Type = CallTypeEdit
	}
	return e
}

// copyLeads deep-copies the list so a failed write cannot leak into the live one
func (s *LeadStore) copyLeads() []Lead {
	out := make([]Lead, len(s.leads))
	for i, l := range s.leads {
		out[i] = l.clone()
	}
	return out
}

func (s *LeadStore) indexOf(id string) int {
	for i, l := range s.leads {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s *LeadStore) persist(ctx context.Context, leads []Lead) error {
	if err := storage.Save(ctx, s.store, LeadsKey, leads); err != nil {
		return fmt.Errorf("failed to persist leads: %w", err)
	}
	return nil
}
