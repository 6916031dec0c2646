package api

import (
	"time"

	"github.com/platinummonkey/crm/pkg/auth"
	"github.com/platinummonkey/crm/pkg/importer"
	"github.com/platinummonkey/crm/pkg/rbac"
	"github.com/platinummonkey/crm/pkg/records"
	"github.com/platinummonkey/crm/pkg/users"
)

// User is an account as the API shows it; credentials never leave the server
type User struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Role  users.Role `json:"role"`
	Name  string     `json:"name"`
}

func toUser(a users.UserAccount) User {
	return User{ID: a.ID, Email: a.Email, Role: a.Role, Name: a.Name}
}

func toUsers(accounts []users.UserAccount) []User {
	out := make([]User, len(accounts))
	for i, a := range accounts {
		out[i] = toUser(a)
	}
	return out
}

// CreatedUser is returned once, when an account is created without a password
type CreatedUser struct {
	User
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}

// LoginRequest is the body of POST /api/session/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the signed-in identity
type SessionResponse struct {
	Session  auth.Session   `json:"session"`
	Sections []rbac.Section `json:"sections"`
}

// UpdateLeadRequest patches a lead; Note, when set, is logged as an edit
type UpdateLeadRequest struct {
	records.LeadPatch
	Note string `json:"note,omitempty"`
}

// StatusRequest is the body of PUT /api/leads/{id}/status
type StatusRequest struct {
	Status string `json:"status"`
}

// CallRequest is the body of POST /api/leads/{id}/calls
type CallRequest struct {
	Notes        string     `json:"notes"`
	NextFollowUp *time.Time `json:"nextFollowUp,omitempty"`
}

// AssignRequest is the body of POST /api/leads/assign
type AssignRequest struct {
	IDs      []string `json:"ids"`
	AssignTo string   `json:"assignTo"`
}

// AssignResponse reports how many leads changed hands
type AssignResponse struct {
	Updated int `json:"updated"`
}

// ImportResponse lists the leads created by an import and the rows it left out
type ImportResponse struct {
	Imported int                   `json:"imported"`
	Leads    []records.Lead        `json:"leads"`
	Skipped  []importer.SkippedRow `json:"skipped"`
}

// LeadView is a lead with its assignee resolved for display
type LeadView struct {
	records.Lead
	AssigneeName string `json:"assigneeName"`
}

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     users.Role `json:"role,omitempty"`
	Password string     `json:"password,omitempty"`
}

// PublishResponse reports where a published report went
type PublishResponse struct {
	Location string `json:"location"`
}
