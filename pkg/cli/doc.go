// Package cli implements crmctl, the CRM command-line client.
//
// Every invocation opens the configured store (see pkg/config), restores the
// persisted session and runs one operation through pkg/app, so the permission
// table and visibility rules apply exactly as they do over HTTP.
//
//	crmctl login --email sales@crm.com --password sales123
//	crmctl leads import ./leads.csv
//	crmctl leads list --status in-progress --sort createdAt --desc
//	crmctl leads assign --to user@crm.com 3f2c... 9a1b...
//	crmctl report leads --from 2024-03-01 --to 2024-03-31 -o march.csv
//	crmctl settings round-robin off
//	crmctl logout
//
// The filesystem store is the default, so a login carries over between
// invocations the way a page reload keeps a browser session.
package cli
