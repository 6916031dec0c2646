package audit

import (
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Session events
	EventTypeLogin       EventType = "auth.login"
	EventTypeLoginFailed EventType = "auth.login_failed"
	EventTypeLogout      EventType = "auth.logout"

	// Authorization events
	EventTypeAccessDenied EventType = "authz.access_denied"

	// Directory events
	EventTypeUserCreate EventType = "admin.user_create"
	EventTypeUserUpdate EventType = "admin.user_update"
	EventTypeUserDelete EventType = "admin.user_delete"

	// Record events
	EventTypeLeadDelete EventType = "data.lead_delete"
	EventTypeLeadAssign EventType = "data.lead_assign"
	EventTypeLeadImport EventType = "data.lead_import"

	// Configuration events
	EventTypeSettingsChange EventType = "config.settings_change"

	// Export events
	EventTypeReportPublish EventType = "export.report_publish"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// ResourceType represents the type of record an event touched
type ResourceType string

const (
	ResourceTypeSession  ResourceType = "session"
	ResourceTypeSection  ResourceType = "section"
	ResourceTypeUser     ResourceType = "user"
	ResourceTypeLead     ResourceType = "lead"
	ResourceTypeSettings ResourceType = "settings"
	ResourceTypeReport   ResourceType = "report"
)

// Event is a single audit log entry
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"eventType"`
	Status    EventStatus `json:"status"`

	// Actor is the email of whoever acted; for failed logins, the email tried
	Actor     string `json:"actor,omitempty"`
	ActorRole string `json:"actorRole,omitempty"`

	ResourceType ResourceType `json:"resourceType,omitempty"`
	ResourceID   string       `json:"resourceId,omitempty"`

	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Filter narrows a listing of recorded events. Zero fields match everything.
type Filter struct {
	Type   EventType
	Actor  string
	Status EventStatus
	Since  time.Time
	Limit  int
}

// Match reports whether event passes f
func (f Filter) Match(event *Event) bool {
	if f.Type != "" && event.Type != f.Type {
		return false
	}
	if f.Actor != "" && event.Actor != f.Actor {
		return false
	}
	if f.Status != "" && event.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && event.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
