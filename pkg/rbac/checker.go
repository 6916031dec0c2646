package rbac

import (
	"fmt"

	"github.com/platinummonkey/crm/pkg/users"
)

// HasPermission reports whether role may enter section. Unknown roles and
// sections are denied.
func HasPermission(role users.Role, section Section) bool {
	for _, granted := range permissionTable[role] {
		if granted == section {
			return true
		}
	}
	return false
}

// Check evaluates role against section and explains the outcome
func Check(role users.Role, section Section) PermissionCheckResult {
	result := PermissionCheckResult{Role: role, Section: section}

	switch {
	case !role.Valid():
		result.Reason = "unknown role"
	case !section.Valid():
		result.Reason = "unknown section"
	case HasPermission(role, section):
		result.Allowed = true
	default:
		result.Reason = "section not granted to role"
	}
	return result
}

// Authorize returns ErrUnauthorized, wrapped with the section, when role may not enter section
func Authorize(role users.Role, section Section) error {
	if HasPermission(role, section) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnauthorized, section)
}

// SectionsFor returns the sections role may enter, in navigation order
func SectionsFor(role users.Role) []Section {
	var sections []Section
	for _, s := range AllSections() {
		if HasPermission(role, s) {
			sections = append(sections, s)
		}
	}
	return sections
}

// ValidateTable checks that the grant table and the navigation list agree:
// every granted section is navigable and every navigable section is granted
// to at least one role.
func ValidateTable() error {
	reachable := make(map[Section]bool)
	for role, sections := range permissionTable {
		if !role.Valid() {
			return fmt.Errorf("permission table names unknown role %q", role)
		}
		for _, s := range sections {
			if !s.Valid() {
				return fmt.Errorf("role %s is granted unknown section %q", role, s)
			}
			reachable[s] = true
		}
	}
	for _, s := range AllSections() {
		if !reachable[s] {
			return fmt.Errorf("section %s is not granted to any role", s)
		}
	}
	return nil
}
