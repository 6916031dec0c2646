package records

import (
	"context"
	"testing"
	"time"

	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPipeline(t *testing.T, store storage.Store) (*Pipeline, *LeadStore, *MeetingStore) {
	t.Helper()
	leads := setupLeads(t, store)
	meetings := NewMeetingStore(store, observability.NewNopLogger())
	require.NoError(t, meetings.Load(context.Background()))
	return NewPipeline(leads, meetings, observability.NewNopLogger()), leads, meetings
}

func TestPipeline_CompleteAndReopenRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p, leads, meetings := setupPipeline(t, store)

	added, err := leads.AddMany(ctx, []Lead{sampleLead("a"), sampleLead("b")})
	require.NoError(t, err)
	_, err = leads.LogCall(ctx, added[1].ID, "intro call", nil)
	require.NoError(t, err)
	before, err := leads.Get(added[1].ID)
	require.NoError(t, err)

	completedAt := fixedNow.Add(time.Hour)
	meeting, err := p.Complete(ctx, added[1].ID, completedAt)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, meeting.Status)
	assert.Equal(t, completedAt, meeting.CompletedAt)

	assert.Len(t, leads.List(), 1)
	_, err = leads.Get(added[1].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.Len(t, meetings.List(), 1)
	assert.Equal(t, added[1].ID, meetings.List()[0].ID)

	reopened, err := p.Reopen(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, reopened.Status)
	assert.Empty(t, meetings.List())
	require.Len(t, leads.List(), 2)
	assert.Equal(t, added[1].ID, leads.List()[0].ID, "reopened leads go first")

	restored := reopened
	restored.Status = before.Status
	assert.Equal(t, before, restored, "everything but status survives the round trip")

	// persisted documents agree with memory
	_, reloadedLeads, reloadedMeetings := setupPipeline(t, store)
	assert.Equal(t, leads.List(), reloadedLeads.List())
	assert.Empty(t, reloadedMeetings.List())
}

func TestPipeline_CompleteDefaultsToNow(t *testing.T) {
	ctx := context.Background()
	p, leads, _ := setupPipeline(t, storage.NewMemoryStore())
	lead, err := leads.Add(ctx, sampleLead("a"))
	require.NoError(t, err)

	meeting, err := p.Complete(ctx, lead.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, meeting.CompletedAt)
}

func TestPipeline_SetStatus(t *testing.T) {
	ctx := context.Background()
	p, leads, meetings := setupPipeline(t, storage.NewMemoryStore())
	lead, err := leads.Add(ctx, sampleLead("a"))
	require.NoError(t, err)

	updated, err := p.SetStatus(ctx, lead.ID, StatusFollowUp)
	require.NoError(t, err)
	assert.Equal(t, StatusFollowUp, updated.Status)
	assert.Len(t, leads.List(), 1)
	assert.Empty(t, meetings.List())

	completed, err := p.SetStatus(ctx, lead.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Empty(t, leads.List())
	assert.Len(t, meetings.List(), 1)
}

func TestPipeline_NotFound(t *testing.T) {
	ctx := context.Background()
	p, _, _ := setupPipeline(t, storage.NewMemoryStore())

	_, err := p.Complete(ctx, "missing", fixedNow)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = p.Reopen(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPipeline_CompleteRollsBackOnMeetingsFailure(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	p, leads, meetings := setupPipeline(t, store)
	lead, err := leads.Add(ctx, sampleLead("a"))
	require.NoError(t, err)

	store.failPut[MeetingsKey] = true
	_, err = p.Complete(ctx, lead.ID, fixedNow)
	require.Error(t, err)

	assert.Len(t, leads.List(), 1)
	assert.Empty(t, meetings.List())

	persisted, err := storage.Load(ctx, store, LeadsKey, []Lead{})
	require.NoError(t, err)
	require.Len(t, persisted, 1, "the leads document is restored")
	assert.Equal(t, lead.ID, persisted[0].ID)
}

func TestPipeline_ReopenRollsBackOnLeadsFailure(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	p, leads, meetings := setupPipeline(t, store)
	lead, err := leads.Add(ctx, sampleLead("a"))
	require.NoError(t, err)
	meeting, err := p.Complete(ctx, lead.ID, fixedNow)
	require.NoError(t, err)

	store.failPut[LeadsKey] = true
	_, err = p.Reopen(ctx, meeting.ID)
	require.Error(t, err)

	assert.Empty(t, leads.List())
	require.Len(t, meetings.List(), 1)

	persisted, err := storage.Load(ctx, store, MeetingsKey, []Meeting{})
	require.NoError(t, err)
	assert.Len(t, persisted, 1, "the meetings document is restored")
}
