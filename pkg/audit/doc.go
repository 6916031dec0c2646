// Package audit records who did what to the CRM: sign-ins, refused section
// access, directory changes, lead deletion, assignment and import, settings
// changes and published reports.
//
// # Loggers
//
// LogrusLogger writes each event as a structured entry tagged audit=true.
// FileLogger appends JSON lines to a file and rotates it by size.
// MemoryLogger keeps the latest events for the activity listing.
// MultiLogger fans one event out to several of these.
//
//	logger := audit.NewMultiLogger(
//		audit.NewLogrusLogger(log),
//		fileLogger,
//	)
//	logger.Log(ctx, &audit.Event{
//		Type:         audit.EventTypeLeadAssign,
//		Status:       audit.EventStatusSuccess,
//		Actor:        "sales@crm.com",
//		ResourceType: audit.ResourceTypeLead,
//		Metadata:     map[string]interface{}{"assignee": "user@crm.com", "count": 3},
//	})
//
// Events never carry credentials.
package audit
