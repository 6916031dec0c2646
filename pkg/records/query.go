package records

import (
	"fmt"
	"sort"
	"strings"

	"github.com/platinummonkey/crm/pkg/users"
)

// VisibleLeads returns the leads identity may see. Agents see only leads
// assigned to their email; every other role sees the list unchanged.
func VisibleLeads(all []Lead, identity users.UserAccount) []Lead {
	if identity.Role != users.RoleAgent {
		return all
	}
	out := make([]Lead, 0, len(all))
	for _, l := range all {
		if l.AssignedTo == identity.Email {
			out = append(out, l)
		}
	}
	return out
}

// VisibleMeetings applies the same rule as VisibleLeads to meetings
func VisibleMeetings(all []Meeting, identity users.UserAccount) []Meeting {
	if identity.Role != users.RoleAgent {
		return all
	}
	out := make([]Meeting, 0, len(all))
	for _, m := range all {
		if m.AssignedTo == identity.Email {
			out = append(out, m)
		}
	}
	return out
}

// SortField names a lead column that can be sorted on
type SortField string

const (
	SortLeadName   SortField = "leadName"
	SortCompany    SortField = "company"
	SortStatus     SortField = "status"
	SortAssignedTo SortField = "assignedTo"
	SortCreatedAt  SortField = "createdAt"
	SortSource     SortField = "source"
)

// ParseSortField parses a sort column; empty means no sorting
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case "", SortLeadName, SortCompany, SortStatus, SortAssignedTo, SortCreatedAt, SortSource:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// Query narrows and orders a lead list
type Query struct {
	Search     string
	Status     string
	SortField  SortField
	Descending bool
}

// ApplyQuery filters leads by search term and status, then sorts them stably.
// Callers apply visibility first.
func ApplyQuery(leads []Lead, q Query) []Lead {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	status := strings.TrimSpace(q.Status)

	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if term != "" && !containsFold(term, l.LeadName, l.Company, l.Source) {
			continue
		}
		if status != "" && status != "all" && string(l.Status) != status {
			continue
		}
		out = append(out, l)
	}

	if q.SortField == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return lessLead(out[j], out[i], q.SortField)
		}
		return lessLead(out[i], out[j], q.SortField)
	})
	return out
}

func lessLead(a, b Lead, field SortField) bool {
	switch field {
	case SortLeadName:
		return strings.ToLower(a.LeadName) < strings.ToLower(b.LeadName)
	case SortCompany:
		return strings.ToLower(a.Company) < strings.ToLower(b.Company)
	case SortStatus:
		return a.Status < b.Status
	case SortAssignedTo:
		return a.AssignedTo < b.AssignedTo
	case SortCreatedAt:
		return a.CreatedAt.Before(b.CreatedAt)
	case SortSource:
		return strings.ToLower(a.Source) < strings.ToLower(b.Source)
	}
	return false
}
