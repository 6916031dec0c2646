package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/platinummonkey/crm/pkg/assignment"
	"github.com/platinummonkey/crm/pkg/audit"
	"github.com/platinummonkey/crm/pkg/auth"
	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/rbac"
	"github.com/platinummonkey/crm/pkg/records"
	"github.com/platinummonkey/crm/pkg/reports"
	"github.com/platinummonkey/crm/pkg/seed"
	"github.com/platinummonkey/crm/pkg/settings"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/platinummonkey/crm/pkg/users"
	"github.com/sirupsen/logrus"
)

// ErrNoSink is returned when a report is published without an export sink configured
var ErrNoSink = errors.New("no export sink configured")

// Options configures a Context
type Options struct {
	Store   storage.Store
	Metrics *observability.Metrics
	Logger  *logrus.Logger

	// Location renders report dates; nil means UTC
	Location *time.Location

	// Sink receives published reports; nil disables publishing
	Sink reports.Sink

	// Seed fills documents that have never been written
	Seed *seed.File

	// Audit receives the audit trail in addition to the in-memory activity
	// log; nil writes it through Logger
	Audit audit.Logger
}

// Context owns everything one signed-in session works with: the stores, the
// gate, the settings and the round-robin rotation. Nothing is shared between
// contexts except the backing store.
type Context struct {
	store   storage.Store
	metrics *observability.Metrics
	log     *logrus.Logger
	loc     *time.Location
	sink    reports.Sink
	now     func() time.Time

	directory *users.Directory
	gate      *auth.Gate
	settings  *settings.Store
	leads     *records.LeadStore
	meetings  *records.MeetingStore
	clients   *records.ClientStore
	pipeline  *records.Pipeline
	rotation  *assignment.Rotation
	audit     audit.Logger
	activity  *audit.MemoryLogger

	// importMu serializes imports so a batch and its rotation commit stay together
	importMu sync.Mutex
}

// New loads every document from opts.Store, applies the seed and restores the
// persisted session
func New(ctx context.Context, opts Options) (*Context, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("app: store is required")
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	c := &Context{
		store:    opts.Store,
		metrics:  opts.Metrics,
		log:      log,
		loc:      loc,
		sink:     opts.Sink,
		now:      time.Now,
		rotation: assignment.NewRotation(),
		activity: audit.NewMemoryLogger(audit.DefaultMemoryCapacity),
	}
	trail := opts.Audit
	if trail == nil {
		trail = audit.NewLogrusLogger(log)
	}
	c.audit = audit.NewMultiLogger(c.activity, trail)
	c.directory = users.NewDirectory(opts.Store, log)
	c.gate = auth.NewGate(c.directory, opts.Store, opts.Metrics, log)
	c.settings = settings.NewStore(opts.Store)
	c.leads = records.NewLeadStore(opts.Store, log)
	c.meetings = records.NewMeetingStore(opts.Store, log)
	c.clients = records.NewClientStore(opts.Store, log)
	c.pipeline = records.NewPipeline(c.leads, c.meetings, log)

	loaders := []struct {
		name string
		load func(context.Context) error
	}{
		{"users", c.directory.Load},
		{"settings", c.settings.Load},
		{"leads", c.leads.Load},
		{"meetings", c.meetings.Load},
		{"clients", c.clients.Load},
	}
	for _, l := range loaders {
		if err := l.load(ctx); err != nil {
			return nil, err
		}
	}

	if opts.Seed != nil {
		if _, err := seed.Apply(ctx, opts.Seed, seed.Targets{
			Store:     opts.Store,
			Directory: c.directory,
			Clients:   c.clients,
			Leads:     c.leads,
		}, log); err != nil {
			return nil, err
		}
	}

	if err := c.gate.Restore(ctx); err != nil {
		return nil, err
	}
	if err := rbac.ValidateTable(); err != nil {
		return nil, err
	}

	log.Info("Application context ready")
	return c, nil
}

// Close releases the audit trail and the backing store
func (c *Context) Close() error {
	return errors.Join(c.audit.Close(), c.store.Close())
}

// Store returns the backing store, for health checks
func (c *Context) Store() storage.Store {
	return c.store
}

// Login signs in by exact email and credential match
func (c *Context) Login(ctx context.Context, email, credential string) (users.UserAccount, error) {
	account, err := c.gate.Login(ctx, email, credential)
	if err != nil {
		c.record(ctx, &audit.Event{
			Type:         audit.EventTypeLoginFailed,
			Status:       audit.EventStatusFailure,
			Actor:        email,
			ResourceType: audit.ResourceTypeSession,
		})
		return users.UserAccount{}, err
	}
	c.record(ctx, &audit.Event{
		Type:         audit.EventTypeLogin,
		ResourceType: audit.ResourceTypeSession,
		ResourceID:   account.ID,
	})
	return account, nil
}

// Logout ends the session and resets the rotation. Every later read filters
// against whoever signs in next.
func (c *Context) Logout(ctx context.Context) error {
	identity, signedIn := c.gate.Current()
	c.rotation.Reset()
	if err := c.gate.Logout(ctx); err != nil {
		return err
	}
	if signedIn {
		c.record(ctx, &audit.Event{
			Type:         audit.EventTypeLogout,
			Actor:        identity.Email,
			ActorRole:    string(identity.Role),
			ResourceType: audit.ResourceTypeSession,
			ResourceID:   identity.ID,
		})
	}
	return nil
}

// Activity lists recent audit events, newest first
func (c *Context) Activity(filter audit.Filter) ([]audit.Event, error) {
	if _, err := c.authorize(rbac.SectionUserManagement); err != nil {
		return nil, err
	}
	return c.activity.Events(filter), nil
}

// record stamps event with the time and the signed-in actor, then writes it
// to the audit trail. Audit failures are logged, never returned.
func (c *Context) record(ctx context.Context, event *audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	if event.Status == "" {
		event.Status = audit.EventStatusSuccess
	}
	if event.Actor == "" {
		if identity, ok := c.gate.Current(); ok {
			event.Actor = identity.Email
			event.ActorRole = string(identity.Role)
		}
	}
	if err := c.audit.Log(ctx, event); err != nil {
		c.log.WithError(err).WithField("event_type", event.Type).Warn("Failed to write audit event")
	}
}

// denied records a refused section entry
func (c *Context) denied(identity users.UserAccount, section rbac.Section, action string) {
	c.metrics.RecordPermissionDenied(string(section))
	c.record(context.Background(), &audit.Event{
		Type:         audit.EventTypeAccessDenied,
		Status:       audit.EventStatusDenied,
		Actor:        identity.Email,
		ActorRole:    string(identity.Role),
		ResourceType: audit.ResourceTypeSection,
		ResourceID:   string(section),
		Message:      action,
	})
}

// Current returns the signed-in account
func (c *Context) Current() (users.UserAccount, bool) {
	return c.gate.Current()
}

// Session returns the persisted form of the signed-in identity
func (c *Context) Session() (auth.Session, bool) {
	return c.gate.Session()
}

// Sections lists what the signed-in role may open
func (c *Context) Sections() ([]rbac.Section, error) {
	identity, ok := c.gate.Current()
	if !ok {
		return nil, auth.ErrNotSignedIn
	}
	return rbac.SectionsFor(identity.Role), nil
}

// authorize returns the signed-in identity if its role may enter section
func (c *Context) authorize(section rbac.Section) (users.UserAccount, error) {
	identity, ok := c.gate.Current()
	if !ok {
		return users.UserAccount{}, auth.ErrNotSignedIn
	}
	if err := rbac.Authorize(identity.Role, section); err != nil {
		c.denied(identity, section, "enter")
		c.log.WithFields(logrus.Fields{"user": identity.Email, "section": section}).Warn("Section access denied")
		return users.UserAccount{}, err
	}
	return identity, nil
}

// authorizeManager additionally requires a role that may edit, delete and assign leads
func (c *Context) authorizeManager(section rbac.Section) (users.UserAccount, error) {
	identity, err := c.authorize(section)
	if err != nil {
		return users.UserAccount{}, err
	}
	if identity.Role == users.RoleAgent {
		c.denied(identity, section, "manage")
		return users.UserAccount{}, fmt.Errorf("%w: managing %s", rbac.ErrUnauthorized, section)
	}
	return identity, nil
}
