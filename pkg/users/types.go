package users

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Role is the access tier of a user account
type Role string

const (
	RoleSuperAdmin Role = "super-admin" // Full access including user management
	RoleLead       Role = "lead"        // Team lead; everything but user management
	RoleAgent      Role = "agent"       // Sees and works only the leads assigned to them
)

// roleAliases maps the legacy role names still found in older seed files
var roleAliases = map[string]Role{
	"admin": RoleSuperAdmin,
	"sales": RoleLead,
	"user":  RoleAgent,
}

// AllRoles returns every role from highest to lowest tier
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleLead, RoleAgent}
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// Rank orders roles by tier. Unknown roles rank -1.
func (r Role) Rank() int {
	switch r {
	case RoleSuperAdmin:
		return 2
	case RoleLead:
		return 1
	case RoleAgent:
		return 0
	default:
		return -1
	}
}

// ParseRole parses a role name, accepting legacy aliases
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if r := Role(s); r.Valid() {
		return r, nil
	}
	if r, ok := roleAliases[s]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// UnmarshalText accepts canonical names and legacy aliases
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UserAccount is an entry in the user directory.
// Credential is stored and compared in plaintext; this is a demo-grade login only.
type UserAccount struct {
	ID         string `json:"id" yaml:"id"`
	Email      string `json:"email" yaml:"email"`
	Credential string `json:"password" yaml:"password"`
	Role       Role   `json:"role" yaml:"role"`
	Name       string `json:"name" yaml:"name"`
}

// Unassigned is displayed for records whose assignee no longer resolves
const Unassigned = "Unassigned"

var (
	// ErrNotFound is returned when no account has the given ID
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when an email is already in the directory
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidRole is returned for unknown role names
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidAccount is returned when an account fails validation
	ErrInvalidAccount = errors.New("invalid user account")
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ValidEmail reports whether email has the shape local@domain.tld
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidationError lists the fields of an account that failed validation
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for _, k := range []string{"name", "email", "role"} {
		if msg, ok := e.Fields[k]; ok {
			keys = append(keys, k+": "+msg)
		}
	}
	return "invalid user account: " + strings.Join(keys, "; ")
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidAccount)
func (e *ValidationError) Unwrap() error {
	return ErrInvalidAccount
}

// Validate checks the fields an account must carry
func (a UserAccount) Validate() error {
	fields := make(map[string]string)
	if strings.TrimSpace(a.Name) == "" {
		fields["name"] = "Name is required."
	}
	if a.Email == "" {
		fields["email"] = "Email is required."
	} else if !ValidEmail(a.Email) {
		fields["email"] = "Email is invalid."
	}
	if !a.Role.Valid() {
		fields["role"] = "Role is invalid."
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// DefaultRoster returns the directory used when nothing has been persisted yet
func DefaultRoster() []UserAccount {
	return []UserAccount{
		{ID: "1", Email: "admin@crm.com", Credential: "admin123", Role: RoleSuperAdmin, Name: "Admin User"},
		{ID: "2", Email: "sales@crm.com", Credential: "sales123", Role: RoleLead, Name: "Sales Manager"},
		{ID: "3", Email: "user@crm.com", Credential: "user123", Role: RoleAgent, Name: "Regular User"},
		{ID: "4", Email: "sales.agent1@crm.com", Credential: "password", Role: RoleLead, Name: "Alice"},
		{ID: "5", Email: "sales.agent2@crm.com", Credential: "password", Role: RoleAgent, Name: "Bob"},
	}
}
