package app

import (
	"bytes"
	"context"
	"time"

	"github.com/platinummonkey/crm/pkg/audit"
	"github.com/platinummonkey/crm/pkg/rbac"
	"github.com/platinummonkey/crm/pkg/records"
	"github.com/platinummonkey/crm/pkg/reports"
	"github.com/platinummonkey/crm/pkg/settings"
	"github.com/platinummonkey/crm/pkg/users"
	"github.com/sirupsen/logrus"
)

// Clients searches client accounts; an empty term lists them all
func (c *Context) Clients(term string) ([]records.Client, error) {
	if _, err := c.authorize(rbac.SectionAccounts); err != nil {
		return nil, err
	}
	return c.clients.Search(term), nil
}

// Client returns one client account
func (c *Context) Client(id string) (records.Client, error) {
	if _, err := c.authorize(rbac.SectionAccounts); err != nil {
		return records.Client{}, err
	}
	return c.clients.Get(id)
}

// AddClient creates a client account
func (c *Context) AddClient(ctx context.Context, client records.Client) (records.Client, error) {
	if _, err := c.authorize(rbac.SectionAccounts); err != nil {
		return records.Client{}, err
	}
	client.ID = ""
	return c.clients.Add(ctx, client)
}

// UpdateClient applies patch to a client account
func (c *Context) UpdateClient(ctx context.Context, id string, patch records.ClientPatch) (records.Client, error) {
	if _, err := c.authorize(rbac.SectionAccounts); err != nil {
		return records.Client{}, err
	}
	return c.clients.Update(ctx, id, patch)
}

// DeleteClient removes a client account
func (c *Context) DeleteClient(ctx context.Context, id string) error {
	if _, err := c.authorize(rbac.SectionAccounts); err != nil {
		return err
	}
	return c.clients.Delete(ctx, id)
}

// Users lists the directory
func (c *Context) Users() ([]users.UserAccount, error) {
	if _, err := c.authorize(rbac.SectionUserManagement); err != nil {
		return nil, err
	}
	return c.directory.List(), nil
}

// AddUser creates an account. A missing credential is replaced by a
// temporary one, returned on the account.
func (c *Context) AddUser(ctx context.Context, account users.UserAccount) (users.UserAccount, error) {
	if _, err := c.authorize(rbac.SectionUserManagement); err != nil {
		return users.UserAccount{}, err
	}
	account.ID = ""
	added, err := c.directory.Add(ctx, account)
	if err != nil {
		return users.UserAccount{}, err
	}
	c.record(ctx, &audit.Event{
		Type:         audit.EventTypeUserCreate,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   added.ID,
		Metadata:     map[string]interface{}{"email": added.Email, "role": string(added.Role)},
	})
	return added, nil
}

// UpdateUser changes an account. Changes to the signed-in account apply to the
// session immediately.
func (c *Context) UpdateUser(ctx context.Context, id string, patch users.Patch) (users.UserAccount, error) {
	if _, err := c.authorize(rbac.SectionUserManagement); err != nil {
		return users.UserAccount{}, err
	}
	updated, err := c.directory.Update(ctx, id, patch)
	if err != nil {
		return users.UserAccount{}, err
	}
	c.record(ctx, &audit.Event{
		Type:         audit.EventTypeUserUpdate,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   updated.ID,
		Metadata:     map[string]interface{}{"email": updated.Email, "role": string(updated.Role)},
	})
	if err := c.gate.Refresh(ctx); err != nil {
		return users.UserAccount{}, err
	}
	return updated, nil
}

// DeleteUser removes an account. The signed-in user cannot delete themselves.
// Leads assigned to the account keep its email.
func (c *Context) DeleteUser(ctx context.Context, id string) error {
	identity, err := c.authorize(rbac.SectionUserManagement)
	if err != nil {
		return err
	}
	if identity.ID == id {
		return users.ErrSelfDelete
	}
	if err := c.directory.Delete(ctx, id); err != nil {
		return err
	}
	c.record(ctx, &audit.Event{
		Type:         audit.EventTypeUserDelete,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   id,
	})
	return nil
}

// DisplayAssignee resolves an assignee email to a name, or users.Unassigned
func (c *Context) DisplayAssignee(email string) string {
	return c.directory.DisplayAssignee(email)
}

// Settings returns the application settings
func (c *Context) Settings() (settings.Settings, error) {
	if _, err := c.authorize(rbac.SectionSettings); err != nil {
		return settings.Settings{}, err
	}
	return c.settings.Get(), nil
}

// UpdateSettings replaces the application settings
func (c *Context) UpdateSettings(ctx context.Context, next settings.Settings) (settings.Settings, error) {
	if _, err := c.authorize(rbac.SectionSettings); err != nil {
		return settings.Settings{}, err
	}
	if err := c.settings.Save(ctx, next); err != nil {
		return settings.Settings{}, err
	}
	c.log.WithField("round_robin", next.RoundRobin).Info("Settings updated")
	c.record(ctx, &audit.Event{
		Type:         audit.EventTypeSettingsChange,
		ResourceType: audit.ResourceTypeSettings,
		Metadata:     map[string]interface{}{"roundRobin": next.RoundRobin},
	})
	return next, nil
}

// Report lays out a leads or clients report over the records the identity may see
func (c *Context) Report(kind reports.Kind, from, to *time.Time) (*reports.Report, error) {
	identity, err := c.authorize(rbac.SectionReports)
	if err != nil {
		return nil, err
	}
	return reports.Build(kind, records.VisibleLeads(c.leads.List(), identity), c.clients.List(), from, to, c.loc)
}

// ExportReport renders a report as CSV
func (c *Context) ExportReport(kind reports.Kind, from, to *time.Time) (string, []byte, error) {
	report, err := c.Report(kind, from, to)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if err := reports.WriteCSV(&buf, report); err != nil {
		return "", nil, err
	}
	c.metrics.RecordReport(string(kind), "csv")
	return reports.FileName(kind, c.now()), buf.Bytes(), nil
}

// PublishReport exports a report as CSV to the configured sink and returns its location
func (c *Context) PublishReport(ctx context.Context, kind reports.Kind, from, to *time.Time) (string, error) {
	if c.sink == nil {
		return "", ErrNoSink
	}
	name, body, err := c.ExportReport(kind, from, to)
	if err != nil {
		return "", err
	}
	location, err := c.sink.Put(ctx, name, "text/csv", body)
	if err != nil {
		return "", err
	}
	c.log.WithFields(logrus.Fields{"kind": kind, "location": location}).Info("Report published")
	c.record(ctx, &audit.Event{
		Type:         audit.EventTypeReportPublish,
		ResourceType: audit.ResourceTypeReport,
		ResourceID:   name,
		Metadata:     map[string]interface{}{"location": location},
	})
	return location, nil
}

// Dashboard aggregates the records the identity may see
func (c *Context) Dashboard() (reports.Stats, error) {
	identity, err := c.authorize(rbac.SectionDashboard)
	if err != nil {
		return reports.Stats{}, err
	}
	return reports.Dashboard(
		records.VisibleLeads(c.leads.List(), identity),
		records.VisibleMeetings(c.meetings.List(), identity),
		c.clients.List(),
	), nil
}
