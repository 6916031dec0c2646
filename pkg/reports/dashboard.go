package reports

import (
	"math"
	"sort"
	"time"

	"github.com/platinummonkey/crm/pkg/records"
)

// RecentActivityLimit caps the activity feed on the dashboard
const RecentActivityLimit = 5

// Activity is one call event with the lead it belongs to
type Activity struct {
	LeadID   string             `json:"leadId"`
	LeadName string             `json:"leadName"`
	Type     records.CallType   `json:"type"`
	Notes    string             `json:"notes"`
	Date     time.Time          `json:"date"`
	Status   records.LeadStatus `json:"status"`
}

// Stats are the dashboard's aggregate figures
type Stats struct {
	TotalClients   int                        `json:"totalClients"`
	ActiveLeads    int                        `json:"activeLeads"`
	CallsMade      int                        `json:"callsMade"`
	ConversionRate int                        `json:"conversionRate"`
	StatusCounts   map[records.LeadStatus]int `json:"statusCounts"`
	RecentActivity []Activity                 `json:"recentActivity"`
}

// Dashboard aggregates the records an identity can see. Active leads excludes
// completed ones; the conversion rate is the rounded share of completed records
// among leads and meetings together.
func Dashboard(leads []records.Lead, meetings []records.Meeting, clients []records.Client) Stats {
	stats := Stats{
		TotalClients:   len(clients),
		StatusCounts:   make(map[records.LeadStatus]int, 4),
		RecentActivity: []Activity{},
	}
	for _, s := range records.LeadStatuses() {
		stats.StatusCounts[s] = 0
	}

	all := make([]records.Lead, 0, len(leads)+len(meetings))
	all = append(all, leads...)
	for _, m := range meetings {
		all = append(all, m.Lead)
	}

	completed := 0
	var activity []Activity
	for _, l := range all {
		stats.StatusCounts[l.Status]++
		if l.Status == records.StatusCompleted {
			completed++
		} else {
			stats.ActiveLeads++
		}
		stats.CallsMade += len(l.CallHistory)
		for _, e := range l.CallHistory {
			activity = append(activity, Activity{
				LeadID:   l.ID,
				LeadName: l.LeadName,
				Type:     e.Type,
				Notes:    e.Notes,
				Date:     e.Date,
				Status:   l.Status,
			})
		}
	}

	if len(all) > 0 {
		stats.ConversionRate = int(math.Round(float64(completed) / float64(len(all)) * 100))
	}

	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].Date.After(activity[j].Date)
	})
	if len(activity) > RecentActivityLimit {
		activity = activity[:RecentActivityLimit]
	}
	stats.RecentActivity = append(stats.RecentActivity, activity...)
	return stats
}
