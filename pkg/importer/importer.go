package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/crm/pkg/assignment"
	"github.com/platinummonkey/crm/pkg/records"
	"github.com/platinummonkey/crm/pkg/users"
)

// RequiredHeaders must all be present for an import to proceed
var RequiredHeaders = []string{"leadName", "company", "email"}

// ErrMissingRequiredHeaders is matched by every MissingHeadersError
var ErrMissingRequiredHeaders = errors.New("csv is missing required headers")

// MissingHeadersError names the required headers absent from the file
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return fmt.Sprintf("CSV is missing required headers: %s", strings.Join(e.Missing, ", "))
}

// Unwrap lets callers match with errors.Is(err, ErrMissingRequiredHeaders)
func (e *MissingHeadersError) Unwrap() error {
	return ErrMissingRequiredHeaders
}

// Options controls how imported leads are assigned
type Options struct {
	// RoundRobin spreads leads over Candidates starting at StartIndex.
	// Otherwise every lead goes to ImporterEmail.
	RoundRobin    bool
	Candidates    []users.UserAccount
	StartIndex    int
	ImporterEmail string

	// Now stamps CreatedAt; nil means time.Now
	Now func() time.Time
}

// SkippedRow is a data row left out because required cells were blank
type SkippedRow struct {
	Line    int      `json:"line"`
	Missing []string `json:"missing"`
}

// Result is a converted batch, not yet stored
type Result struct {
	Leads []records.Lead

	// Skipped lists rows with a blank required cell, in file order
	Skipped []SkippedRow

	// NextIndex is where the rotation continues once the batch is stored
	NextIndex int
}

// Import converts table rows into new leads. A file missing any required
// header is rejected whole, as is a round-robin import with no candidates.
// Rows with a blank required cell are skipped and reported; the rest import.
func Import(table *Table, opts Options) (*Result, error) {
	var missing []string
	for _, h := range RequiredHeaders {
		if !table.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingHeadersError{Missing: missing}
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var (
		rows    []map[string]string
		skipped = []SkippedRow{}
	)
	for i, row := range table.Rows {
		var blank []string
		for _, h := range RequiredHeaders {
			if strings.TrimSpace(row[h]) == "" {
				blank = append(blank, h)
			}
		}
		if len(blank) > 0 {
			skipped = append(skipped, SkippedRow{Line: table.line(i), Missing: blank})
			continue
		}
		rows = append(rows, row)
	}

	count := len(rows)
	assignees := make([]string, count)
	next := opts.StartIndex
	if opts.RoundRobin {
		emails, n, err := assignment.RoundRobin(opts.Candidates, opts.StartIndex, count)
		if err != nil {
			return nil, err
		}
		assignees, next = emails, n
	} else {
		for i := range assignees {
			assignees[i] = opts.ImporterEmail
		}
	}

	createdAt := now()
	leads := make([]records.Lead, count)
	for i, row := range rows {
		source := row["source"]
		if source == "" {
			source = row["date"]
		}
		leads[i] = records.Lead{
			ID:          uuid.NewString(),
			LeadName:    row["leadName"],
			Company:     row["company"],
			Contact:     row["contact"],
			Email:       row["email"],
			Source:      source,
			Status:      records.StatusNotStarted,
			AssignedTo:  assignees[i],
			Notes:       row["notes"],
			CreatedAt:   createdAt,
			CallHistory: []records.CallEvent{},
		}
	}

	return &Result{Leads: leads, Skipped: skipped, NextIndex: next}, nil
}

// line reports the file line of row i; tables built by hand count from line 2
func (t *Table) line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}
