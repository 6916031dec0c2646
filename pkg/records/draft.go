package records

import (
	"context"
	"errors"
)

// ErrDraftClosed is returned when a saved or discarded draft is used again
var ErrDraftClosed = errors.New("draft already closed")

// LeadDraft buffers edits to one lead. The embedded Lead is a private copy;
// the store sees the edits only when Save is called.
type LeadDraft struct {
	Lead

	store  *LeadStore
	id     string
	closed bool
}

// Save writes the draft through LeadStore.Update, logging the edit in the call
// history when note is non-empty. The draft is closed afterwards.
func (d *LeadDraft) Save(ctx context.Context, note string) (Lead, error) {
	if d.closed {
		return Lead{}, ErrDraftClosed
	}

	patch := LeadPatch{
		LeadName:   &d.LeadName,
		Company:    &d.Company,
		Contact:    &d.Contact,
		Email:      &d.Email,
		Source:     &d.Source,
		AssignedTo: &d.AssignedTo,
		Notes:      &d.Notes,
	}
	if d.Status != StatusCompleted {
		patch.Status = &d.Status
	}

	var history *CallEvent
	if note != "" {
		history = &CallEvent{Notes: note, Type: CallTypeEdit}
	}

	saved, err := d.store.Update(ctx, d.id, patch, history)
	if err != nil {
		return Lead{}, err
	}
	d.closed = true
	return saved, nil
}

// Discard drops the draft without touching the store
func (d *LeadDraft) Discard() {
	d.closed = true
}
