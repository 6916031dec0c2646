package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/platinummonkey/crm/pkg/assignment"
	"github.com/platinummonkey/crm/pkg/audit"
	"github.com/platinummonkey/crm/pkg/importer"
	"github.com/platinummonkey/crm/pkg/rbac"
	"github.com/platinummonkey/crm/pkg/records"
	"github.com/platinummonkey/crm/pkg/users"
	"github.com/sirupsen/logrus"
)

// Leads returns the leads the signed-in identity may see, filtered and sorted by q
func (c *Context) Leads(q records.Query) ([]records.Lead, error) {
	identity, err := c.authorize(rbac.SectionLeads)
	if err != nil {
		return nil, err
	}
	return records.ApplyQuery(records.VisibleLeads(c.leads.List(), identity), q), nil
}

// Lead returns one visible lead. Leads outside an agent's view are not found.
func (c *Context) Lead(id string) (records.Lead, error) {
	identity, err := c.authorize(rbac.SectionLeads)
	if err != nil {
		return records.Lead{}, err
	}
	return c.visibleLead(identity, id)
}

func (c *Context) visibleLead(identity users.UserAccount, id string) (records.Lead, error) {
	lead, err := c.leads.Get(id)
	if err != nil {
		return records.Lead{}, err
	}
	if len(records.VisibleLeads([]records.Lead{lead}, identity)) == 0 {
		return records.Lead{}, fmt.Errorf("%w: lead %s", records.ErrNotFound, id)
	}
	return lead, nil
}

// AddLead creates a lead. An empty assignee means the creator.
func (c *Context) AddLead(ctx context.Context, lead records.Lead) (records.Lead, error) {
	identity, err := c.authorize(rbac.SectionLeads)
	if err != nil {
		return records.Lead{}, err
	}
	if lead.AssignedTo == "" {
		lead.AssignedTo = identity.Email
	}
	lead.ID = ""
	lead.Status = records.StatusNotStarted
	lead.CallHistory = nil
	return c.leads.Add(ctx, lead)
}

// UpdateLead applies patch to a lead, logging note as an edit when it is non-empty
func (c *Context) UpdateLead(ctx context.Context, id string, patch records.LeadPatch, note string) (records.Lead, error) {
	if _, err := c.authorizeManager(rbac.SectionLeads); err != nil {
		return records.Lead{}, err
	}
	var history *records.CallEvent
	if note != "" {
		history = &records.CallEvent{Notes: note, Type: records.CallTypeEdit}
	}
	return c.leads.Update(ctx, id, patch, history)
}

// DeleteLead removes a lead
func (c *Context) DeleteLead(ctx context.Context, id string) error {
	if _, err := c.authorizeManager(rbac.SectionLeads); err != nil {
		return err
	}
	if err := c.leads.Delete(ctx, id); err != nil {
		return err
	}
	c.record(ctx, &audit.Event{
		Type:         audit.EventTypeLeadDelete,
		ResourceType: audit.ResourceTypeLead,
		ResourceID:   id,
	})
	return nil
}

// SetLeadStatus changes a visible lead's status; completed moves it to meetings
func (c *Context) SetLeadStatus(ctx context.Context, id string, status records.LeadStatus) (records.Lead, error) {
	identity, err := c.authorize(rbac.SectionLeads)
	if err != nil {
		return records.Lead{}, err
	}
	if _, err := c.visibleLead(identity, id); err != nil {
		return records.Lead{}, err
	}

	lead, err := c.pipeline.SetStatus(ctx, id, status)
	if err != nil {
		return records.Lead{}, err
	}
	c.metrics.RecordTransition(string(status))
	return lead, nil
}

// CompleteLead moves a visible lead into meetings
func (c *Context) CompleteLead(ctx context.Context, id string) (records.Meeting, error) {
	identity, err := c.authorize(rbac.SectionLeads)
	if err != nil {
		return records.Meeting{}, err
	}
	if _, err := c.visibleLead(identity, id); err != nil {
		return records.Meeting{}, err
	}

	meeting, err := c.pipeline.Complete(ctx, id, c.now())
	if err != nil {
		return records.Meeting{}, err
	}
	c.metrics.RecordTransition(string(records.StatusCompleted))
	return meeting, nil
}

// LogCall records a call on a visible lead
func (c *Context) LogCall(ctx context.Context, id, notes string, nextFollowUp *time.Time) (records.Lead, error) {
	identity, err := c.authorize(rbac.SectionLeads)
	if err != nil {
		return records.Lead{}, err
	}
	if _, err := c.visibleLead(identity, id); err != nil {
		return records.Lead{}, err
	}

	lead, err := c.leads.LogCall(ctx, id, notes, nextFollowUp)
	if err != nil {
		return records.Lead{}, err
	}
	c.metrics.RecordTransition(string(records.StatusInProgress))
	return lead, nil
}

// EditLead opens a draft of a lead for a manager
func (c *Context) EditLead(id string) (*records.LeadDraft, error) {
	if _, err := c.authorizeManager(rbac.SectionLeads); err != nil {
		return nil, err
	}
	return c.leads.Edit(id)
}

// AssignLeads hands leads to email. The email is not checked against the directory.
func (c *Context) AssignLeads(ctx context.Context, ids []string, email string) (int, error) {
	if _, err := c.authorizeManager(rbac.SectionLeads); err != nil {
		return 0, err
	}
	changed, err := c.leads.Assign(ctx, ids, email)
	if err != nil {
		return 0, err
	}
	c.metrics.RecordAssignment("manual", changed)
	c.record(ctx, &audit.Event{
		Type:         audit.EventTypeLeadAssign,
		ResourceType: audit.ResourceTypeLead,
		Metadata:     map[string]interface{}{"assignee": email, "requested": len(ids), "count": changed},
	})
	return changed, nil
}

// AssignableUsers lists the accounts leads can be given to
func (c *Context) AssignableUsers() ([]users.UserAccount, error) {
	if _, err := c.authorize(rbac.SectionLeads); err != nil {
		return nil, err
	}
	return assignment.AssignableUsers(c.directory.List()), nil
}

// ImportResult is what an import stored and which rows it left out
type ImportResult struct {
	Leads   []records.Lead
	Skipped []importer.SkippedRow
}

// ImportLeads reads CSV from r and stores the leads it describes. Rows with a
// blank required cell are skipped and reported. With round-robin on, the
// rotation moves only once the leads are stored.
func (c *Context) ImportLeads(ctx context.Context, r io.Reader) (*ImportResult, error) {
	identity, err := c.authorize(rbac.SectionImportLeads)
	if err != nil {
		return nil, err
	}

	table, err := importer.Parse(r)
	if err != nil {
		c.metrics.RecordImportFailure("parse")
		return nil, err
	}

	c.importMu.Lock()
	defer c.importMu.Unlock()

	roundRobin := c.settings.Get().RoundRobin
	result, err := importer.Import(table, importer.Options{
		RoundRobin:    roundRobin,
		Candidates:    assignment.AssignableUsers(c.directory.List()),
		StartIndex:    c.rotation.Next(),
		ImporterEmail: identity.Email,
		Now:           c.now,
	})
	if err != nil {
		c.metrics.RecordImportFailure(importFailureReason(err))
		return nil, err
	}

	added, err := c.leads.AddMany(ctx, result.Leads)
	if err != nil {
		c.metrics.RecordImportFailure("storage")
		return nil, err
	}

	mode := "importer"
	if roundRobin {
		c.rotation.Set(result.NextIndex)
		mode = "round_robin"
	}
	c.metrics.RecordImport(len(added))
	c.metrics.RecordAssignment(mode, len(added))
	c.log.WithFields(logrus.Fields{"count": len(added), "skipped": len(result.Skipped), "mode": mode, "user": identity.Email}).Info("Leads imported")
	c.record(ctx, &audit.Event{
		Type:         audit.EventTypeLeadImport,
		ResourceType: audit.ResourceTypeLead,
		Metadata:     map[string]interface{}{"count": len(added), "skipped": len(result.Skipped), "mode": mode},
	})
	return &ImportResult{Leads: added, Skipped: result.Skipped}, nil
}

func importFailureReason(err error) string {
	switch {
	case errors.Is(err, importer.ErrMissingRequiredHeaders):
		return "missing_headers"
	case errors.Is(err, assignment.ErrNoAssignableUsers):
		return "no_assignable_users"
	}
	return "invalid"
}

// Meetings returns the completed leads the signed-in identity may see
func (c *Context) Meetings() ([]records.Meeting, error) {
	identity, err := c.authorize(rbac.SectionMeetings)
	if err != nil {
		return nil, err
	}
	return records.VisibleMeetings(c.meetings.List(), identity), nil
}

// ReopenMeeting moves a visible meeting back to the active leads
func (c *Context) ReopenMeeting(ctx context.Context, id string) (records.Lead, error) {
	identity, err := c.authorize(rbac.SectionMeetings)
	if err != nil {
		return records.Lead{}, err
	}
	meeting, err := c.meetings.Get(id)
	if err != nil {
		return records.Lead{}, err
	}
	if len(records.VisibleMeetings([]records.Meeting{meeting}, identity)) == 0 {
		return records.Lead{}, fmt.Errorf("%w: meeting %s", records.ErrNotFound, id)
	}

	lead, err := c.pipeline.Reopen(ctx, id)
	if err != nil {
		return records.Lead{}, err
	}
	c.metrics.RecordTransition(string(records.StatusInProgress))
	return lead, nil
}

// Deals lists completed meetings for the finance section
func (c *Context) Deals() ([]records.Meeting, error) {
	if _, err := c.authorize(rbac.SectionFinance); err != nil {
		return nil, err
	}
	return c.meetings.List(), nil
}
