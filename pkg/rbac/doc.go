// Package rbac implements the CRM permission table.
//
// # Overview
//
// Access is granted per section, by role, from a fixed table:
//
//	Section          super-admin  lead  agent
//	dashboard        yes          yes   yes
//	accounts         yes          yes   no
//	leads            yes          yes   yes
//	meetings         yes          yes   yes
//	finance          yes          yes   no
//	reports          yes          yes   no
//	user-management  yes          no    no
//	settings         yes          yes   no
//	import-leads     yes          yes   no
//
// HasPermission is a pure lookup and fails closed: unknown roles and unknown
// sections are denied. ValidateTable checks the table against the navigation list
// and runs at startup.
//
// # Usage Example
//
//	if err := rbac.Authorize(identity.Role, rbac.SectionReports); err != nil {
//		return err // wraps rbac.ErrUnauthorized
//	}
//
//	pm := rbac.NewPermissionMiddleware(metrics, logger)
//	router.Handle("/reports/{kind}", pm.RequireSection(rbac.SectionReports)(handler))
//
// Record-level visibility (agents only see their own leads) is enforced in
// pkg/records, not here.
package rbac
