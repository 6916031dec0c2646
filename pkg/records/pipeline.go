package records

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Pipeline moves leads between the active list and meetings. Both documents are
// written whole; when the second write fails the first is put back, so a lead is
// never lost or duplicated.
type Pipeline struct {
	leads    *LeadStore
	meetings *MeetingStore
	log      *logrus.Logger
}

// NewPipeline ties a lead store and a meeting store together
func NewPipeline(leads *LeadStore, meetings *MeetingStore, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.New()
	}
	return &Pipeline{leads: leads, meetings: meetings, log: log}
}

// SetStatus changes a lead's status, routing completion through Complete
func (p *Pipeline) SetStatus(ctx context.Context, leadID string, status LeadStatus) (Lead, error) {
	if status == StatusCompleted {
		m, err := p.Complete(ctx, leadID, time.Time{})
		if err != nil {
			return Lead{}, err
		}
		return m.Lead, nil
	}
	return p.leads.SetStatus(ctx, leadID, status)
}

// Complete moves a lead into meetings with status completed. A zero at means now.
func (p *Pipeline) Complete(ctx context.Context, leadID string, at time.Time) (Meeting, error) {
	p.leads.mu.Lock()
	defer p.leads.mu.Unlock()
	p.meetings.mu.Lock()
	defer p.meetings.mu.Unlock()

	idx := p.leads.indexOf(leadID)
	if idx < 0 {
		return Meeting{}, fmt.Errorf("%w: lead %s", ErrNotFound, leadID)
	}
	if at.IsZero() {
		at = p.leads.now()
	}

	lead := p.leads.leads[idx].clone()
	lead.Status = StatusCompleted
	meeting := Meeting{Lead: lead, CompletedAt: at}

	nextLeads := make([]Lead, 0, len(p.leads.leads)-1)
	nextLeads = append(nextLeads, p.leads.leads[:idx]...)
	nextLeads = append(nextLeads, p.leads.leads[idx+1:]...)

	nextMeetings := make([]Meeting, 0, len(p.meetings.meetings)+1)
	nextMeetings = append(nextMeetings, meeting)
	nextMeetings = append(nextMeetings, p.meetings.meetings...)

	if err := p.leads.persist(ctx, nextLeads); err != nil {
		return Meeting{}, err
	}
	if err := p.meetings.persist(ctx, nextMeetings); err != nil {
		p.rollbackLeads(ctx, err)
		return Meeting{}, err
	}
	p.leads.leads = nextLeads
	p.meetings.meetings = nextMeetings

	p.log.WithField("lead_id", leadID).Info("Lead completed")
	meeting.Lead = meeting.Lead.clone()
	return meeting, nil
}

// Reopen moves a meeting back to the front of the active leads with status in-progress
func (p *Pipeline) Reopen(ctx context.Context, meetingID string) (Lead, error) {
	p.leads.mu.Lock()
	defer p.leads.mu.Unlock()
	p.meetings.mu.Lock()
	defer p.meetings.mu.Unlock()

	idx := p.meetings.indexOf(meetingID)
	if idx < 0 {
		return Lead{}, fmt.Errorf("%w: meeting %s", ErrNotFound, meetingID)
	}

	lead := p.meetings.meetings[idx].Lead.clone()
	lead.Status = StatusInProgress

	nextMeetings := make([]Meeting, 0, len(p.meetings.meetings)-1)
	nextMeetings = append(nextMeetings, p.meetings.meetings[:idx]...)
	nextMeetings = append(nextMeetings, p.meetings.meetings[idx+1:]...)

	nextLeads := make([]Lead, 0, len(p.leads.leads)+1)
	nextLeads = append(nextLeads, lead)
	nextLeads = append(nextLeads, p.leads.leads...)

	if err := p.meetings.persist(ctx, nextMeetings); err != nil {
		return Lead{}, err
	}
	if err := p.leads.persist(ctx, nextLeads); err != nil {
		p.rollbackMeetings(ctx, err)
		return Lead{}, err
	}
	p.meetings.meetings = nextMeetings
	p.leads.leads = nextLeads

	p.log.WithField("lead_id", meetingID).Info("Meeting reopened")
	return lead.clone(), nil
}

func (p *Pipeline) rollbackLeads(ctx context.Context, cause error) {
	if err := p.leads.persist(context.WithoutCancel(ctx), p.leads.leads); err != nil {
		p.log.WithError(err).WithField("cause", cause.Error()).Error("Failed to restore leads after meetings write failed")
	}
}

func (p *Pipeline) rollbackMeetings(ctx context.Context, cause error) {
	if err := p.meetings.persist(context.WithoutCancel(ctx), p.meetings.meetings); err != nil {
		p.log.WithError(err).WithField("cause", cause.Error()).Error("Failed to restore meetings after leads write failed")
	}
}
