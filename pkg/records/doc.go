// Package records holds the CRM's business records: leads, meetings and clients.
//
// Each collection is one JSON document in a storage.Store, read once with Load
// and rewritten whole on every change. A write that fails leaves the in-memory
// collection as it was.
//
// Completing a lead is not a field update. The Pipeline moves the lead out of
// the active list into meetings and back again on Reopen:
//
//	pipeline := records.NewPipeline(leads, meetings, log)
//	meeting, err := pipeline.Complete(ctx, leadID, time.Now())
//	...
//	lead, err := pipeline.Reopen(ctx, meeting.ID)
//
// VisibleLeads and VisibleMeetings restrict agents to records assigned to them.
// They must be applied before ApplyQuery and re-applied for every identity.
package records
