package records

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LeadStatus is where a lead sits in the sales pipeline
type LeadStatus string

const (
	StatusNotStarted LeadStatus = "not-started"
	StatusInProgress LeadStatus = "in-progress"
	StatusCompleted  LeadStatus = "completed"
	StatusFollowUp   LeadStatus = "follow-up"
)

// LeadStatuses returns every lead status in pipeline order
func LeadStatuses() []LeadStatus {
	return []LeadStatus{StatusNotStarted, StatusInProgress, StatusCompleted, StatusFollowUp}
}

// Valid reports whether s is a known status
func (s LeadStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusFollowUp:
		return true
	}
	return false
}

// ParseLeadStatus parses a status name
func ParseLeadStatus(s string) (LeadStatus, error) {
	status := LeadStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// CallType classifies an entry in a lead's call history
type CallType string

const (
	CallTypeCall     CallType = "call"
	CallTypeEdit     CallType = "edit"
	CallTypeFollowUp CallType = "follow-up"
)

// CallEvent is one append-only entry in a lead's call history
type CallEvent struct {
	ID           string     `json:"id"`
	Date         time.Time  `json:"date"`
	Notes        string     `json:"notes"`
	NextFollowUp *time.Time `json:"nextFollowUp,omitempty"`
	Type         CallType   `json:"type"`
}

// Lead is a prospective customer being worked by an assignee.
// AssignedTo is a bare email; it may no longer resolve to a user.
type Lead struct {
	ID          string      `json:"id" yaml:"id"`
	LeadName    string      `json:"leadName" yaml:"leadName"`
	Company     string      `json:"company" yaml:"company"`
	Contact     string      `json:"contact" yaml:"contact"`
	Email       string      `json:"email" yaml:"email"`
	Source      string      `json:"source" yaml:"source"`
	Status      LeadStatus  `json:"status" yaml:"status"`
	AssignedTo  string      `json:"assignedTo" yaml:"assignedTo"`
	Notes       string      `json:"notes" yaml:"notes"`
	CreatedAt   time.Time   `json:"createdAt" yaml:"createdAt"`
	CallHistory []CallEvent `json:"callHistory" yaml:"-"`
}

// AssignmentID returns the lead ID
func (l *Lead) AssignmentID() string { return l.ID }

// SetAssignee overwrites the assignee email
func (l *Lead) SetAssignee(email string) { l.AssignedTo = email }

func (l Lead) clone() Lead {
	if l.CallHistory != nil {
		l.CallHistory = append(make([]CallEvent, 0, len(l.CallHistory)), l.CallHistory...)
	}
	return l
}

// Meeting is a completed lead
type Meeting struct {
	Lead
	CompletedAt time.Time `json:"completedAt"`
}

// ClientStatus is the state of a client account
type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"
	ClientPending  ClientStatus = "pending"
)

// Valid reports whether s is a known client status
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientActive, ClientInactive, ClientPending:
		return true
	}
	return false
}

// Client is a customer account. It has no relation to leads.
type Client struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Company   string       `json:"company" yaml:"company"`
	Contact   string       `json:"contact" yaml:"contact"`
	Email     string       `json:"email" yaml:"email"`
	Location  string       `json:"location" yaml:"location"`
	Status    ClientStatus `json:"status" yaml:"status"`
	CreatedAt time.Time    `json:"createdAt" yaml:"createdAt"`
}

var (
	// ErrMissingRequiredField is matched by every MissingFieldError
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrNotFound is returned when no record has the given ID
	ErrNotFound = errors.New("record not found")

	// ErrInvalidStatus is returned for unknown statuses and for completing a lead outside the pipeline
	ErrInvalidStatus = errors.New("invalid status")
)

// MissingFieldError lists every required field that was left empty
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Unwrap lets callers match with errors.Is(err, ErrMissingRequiredField)
func (e *MissingFieldError) Unwrap() error {
	return ErrMissingRequiredField
}

// requireFields returns a MissingFieldError naming every blank field, in the order given
func requireFields(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return &MissingFieldError{Fields: missing}
	}
	return nil
}
