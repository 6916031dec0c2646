package reports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/platinummonkey/crm/pkg/records"
)

// Kind selects which records a report covers
type Kind string

const (
	KindLeads   Kind = "leads"
	KindClients Kind = "clients"
)

// DisplayDate is how dates appear in report cells
const DisplayDate = "01/02/2006"

var (
	// ErrNoData is returned when no record falls inside the report's range
	ErrNoData = errors.New("no data to export for the selected criteria")

	// ErrUnknownReportKind is returned for kinds other than leads and clients
	ErrUnknownReportKind = errors.New("unknown report kind")
)

// ParseKind parses a report kind
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindLeads, KindClients:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReportKind, s)
}

// Report is a flat table of display strings ready for an exporter
type Report struct {
	Kind    Kind       `json:"kind"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Build lays out a report. The date range is inclusive and applies only when
// both from and to are set. Dates are rendered in loc; nil loc means UTC.
func Build(kind Kind, leads []records.Lead, clients []records.Client, from, to *time.Time, loc *time.Location) (*Report, error) {
	if loc == nil {
		loc = time.UTC
	}
	inRange := func(t time.Time) bool {
		if from == nil || to == nil {
			return true
		}
		return !t.Before(*from) && !t.After(*to)
	}

	report := &Report{Kind: kind, Rows: [][]string{}}
	switch kind {
	case KindLeads:
		report.Headers = []string{"Lead Name", "Company", "Source", "Status", "Assigned To", "Created At"}
		for _, l := range leads {
			if !inRange(l.CreatedAt) {
				continue
			}
			report.Rows = append(report.Rows, []string{
				l.LeadName, l.Company, l.Source, string(l.Status), l.AssignedTo, l.CreatedAt.In(loc).Format(DisplayDate),
			})
		}
	case KindClients:
		report.Headers = []string{"Client Name", "Company", "Status", "Location", "Created At"}
		for _, c := range clients {
			if !inRange(c.CreatedAt) {
				continue
			}
			report.Rows = append(report.Rows, []string{
				c.Name, c.Company, string(c.Status), c.Location, c.CreatedAt.In(loc).Format(DisplayDate),
			})
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportKind, kind)
	}

	if len(report.Rows) == 0 {
		return nil, ErrNoData
	}
	return report, nil
}

// EndOfDay returns the last instant of t's day, for inclusive date filters
func EndOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// WriteCSV writes the header row and every body row
func WriteCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Headers); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	if err := cw.WriteAll(report.Rows); err != nil {
		return fmt.Errorf("failed to write report rows: %w", err)
	}
	return nil
}

// FileName is the download name for a report built at t
func FileName(kind Kind, t time.Time) string {
	return fmt.Sprintf("%s_report_%s.csv", kind, t.UTC().Format("20060102T150405Z"))
}
