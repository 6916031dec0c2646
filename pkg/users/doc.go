// Package users holds the CRM user directory.
//
// The directory is an ordered roster of accounts (insertion order is preserved and
// is the order round-robin assignment walks). Each account has one Role:
//
//	RoleSuperAdmin  "super-admin"  full access
//	RoleLead        "lead"         everything except user management
//	RoleAgent       "agent"        dashboard, own leads and meetings
//
// Records refer to their assignee by email. Those references are weak: Resolve
// reports whether an email still names an account and DisplayAssignee falls back
// to Unassigned.
package users
