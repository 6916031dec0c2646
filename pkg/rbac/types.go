package rbac

import (
	"errors"

	"github.com/platinummonkey/crm/pkg/users"
)

// Section is a navigable area of the CRM
type Section string

const (
	SectionDashboard      Section = "dashboard"
	SectionAccounts       Section = "accounts"
	SectionLeads          Section = "leads"
	SectionMeetings       Section = "meetings"
	SectionFinance        Section = "finance"
	SectionReports        Section = "reports"
	SectionUserManagement Section = "user-management"
	SectionSettings       Section = "settings"
	SectionImportLeads    Section = "import-leads"
)

// ErrUnauthorized is returned when a role may not enter a section
var ErrUnauthorized = errors.New("unauthorized")

// AllSections returns every section in navigation order
func AllSections() []Section {
	return []Section{
		SectionDashboard,
		SectionAccounts,
		SectionLeads,
		SectionMeetings,
		SectionFinance,
		SectionReports,
		SectionUserManagement,
		SectionSettings,
		SectionImportLeads,
	}
}

// Valid reports whether s is a known section
func (s Section) Valid() bool {
	for _, known := range AllSections() {
		if s == known {
			return true
		}
	}
	return false
}

// permissionTable is the fixed role to section grant table
var permissionTable = map[users.Role][]Section{
	users.RoleSuperAdmin: {
		SectionDashboard, SectionAccounts, SectionLeads, SectionMeetings, SectionFinance,
		SectionReports, SectionUserManagement, SectionSettings, SectionImportLeads,
	},
	users.RoleLead: {
		SectionDashboard, SectionAccounts, SectionLeads, SectionMeetings, SectionFinance,
		SectionReports, SectionSettings, SectionImportLeads,
	},
	users.RoleAgent: {
		SectionDashboard, SectionLeads, SectionMeetings,
	},
}

// PermissionCheckResult describes the outcome of a section check
type PermissionCheckResult struct {
	Allowed bool       `json:"allowed"`
	Role    users.Role `json:"role"`
	Section Section    `json:"section"`
	Reason  string     `json:"reason,omitempty"`
}
