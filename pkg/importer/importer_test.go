package importer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/platinummonkey/crm/pkg/assignment"
	"github.com/platinummonkey/crm/pkg/records"
	"github.com/platinummonkey/crm/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var importTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func mustParse(t *testing.T, data string) *Table {
	t.Helper()
	table, err := Parse(strings.NewReader(data))
	require.NoError(t, err)
	return table
}

func TestParse(t *testing.T) {
	table := mustParse(t, "\ufeffleadName, company ,email,notes\n"+
		"Alex,Thompson Enterprises,alex@example.com,\"likes, commas\"\n"+
		"\n"+
		" , , ,\n"+
		"Lisa,Chen Industries,lisa@example.com\n")

	assert.Equal(t, []string{"leadName", "company", "email", "notes"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "likes, commas", table.Rows[0]["notes"])
	assert.Equal(t, "Chen Industries", table.Rows[1]["company"])
	assert.Equal(t, "", table.Rows[1]["notes"], "short rows leave missing cells empty")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Parse(strings.NewReader("leadName,company\nfoo\"bar,x\n"))
	assert.Error(t, err)
}

func TestImport_TwoRowsNotStarted(t *testing.T) {
	table := mustParse(t, "leadName,company,email\nAlex,Thompson,alex@example.com\nLisa,Chen,lisa@example.com\n")

	result, err := Import(table, Options{ImporterEmail: "sales@crm.com", Now: func() time.Time { return importTime }})
	require.NoError(t, err)
	require.Len(t, result.Leads, 2)

	for _, lead := range result.Leads {
		assert.Equal(t, records.StatusNotStarted, lead.Status)
		assert.Empty(t, lead.CallHistory)
		assert.NotNil(t, lead.CallHistory)
		assert.Equal(t, "sales@crm.com", lead.AssignedTo)
		assert.Equal(t, importTime, lead.CreatedAt)
		assert.NotEmpty(t, lead.ID)
		assert.Empty(t, lead.Contact)
		assert.Empty(t, lead.Source)
		assert.Empty(t, lead.Notes)
	}
	assert.NotEqual(t, result.Leads[0].ID, result.Leads[1].ID)
	assert.Equal(t, "Alex", result.Leads[0].LeadName)
}

func TestImport_MissingHeaders(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		missing []string
	}{
		{"missing email", "leadName,company\nAlex,Thompson\n", []string{"email"}},
		{"missing all", "name,notes\nAlex,hi\n", []string{"leadName", "company", "email"}},
		{"header names are exact", "LeadName,company,Email\nAlex,Thompson,a@b.io\n", []string{"leadName", "email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Import(mustParse(t, tt.csv), Options{ImporterEmail: "sales@crm.com"})
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrMissingRequiredHeaders)

			var headersErr *MissingHeadersError
			require.True(t, errors.As(err, &headersErr))
			assert.Equal(t, tt.missing, headersErr.Missing)
		})
	}
}

func TestImport_OptionalColumns(t *testing.T) {
	table := mustParse(t, "leadName,company,email,contact,date,notes\nAlex,Thompson,alex@example.com,+1 555,2024-05-01,warm\n")

	result, err := Import(table, Options{ImporterEmail: "sales@crm.com"})
	require.NoError(t, err)
	lead := result.Leads[0]
	assert.Equal(t, "+1 555", lead.Contact)
	assert.Equal(t, "2024-05-01", lead.Source, "date fills in for a missing source")
	assert.Equal(t, "warm", lead.Notes)

	table = mustParse(t, "leadName,company,email,source,date\nAlex,Thompson,alex@example.com,Website,2024-05-01\n")
	result, err = Import(table, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Website", result.Leads[0].Source)
}

func TestImport_RoundRobin(t *testing.T) {
	candidates := assignment.AssignableUsers(users.DefaultRoster())
	table := mustParse(t, "leadName,company,email\na,a,a@x.io\nb,b,b@x.io\nc,c,c@x.io\n")

	result, err := Import(table, Options{RoundRobin: true, Candidates: candidates, StartIndex: 3, ImporterEmail: "admin@crm.com"})
	require.NoError(t, err)

	var got []string
	for _, l := range result.Leads {
		got = append(got, l.AssignedTo)
	}
	assert.Equal(t, []string{"sales.agent2@crm.com", "sales@crm.com", "user@crm.com"}, got)
	assert.Equal(t, 2, result.NextIndex)
}

func TestImport_RoundRobinWithoutCandidates(t *testing.T) {
	table := mustParse(t, "leadName,company,email\na,a,a@x.io\n")

	result, err := Import(table, Options{RoundRobin: true, ImporterEmail: "admin@crm.com"})
	assert.ErrorIs(t, err, assignment.ErrNoAssignableUsers)
	assert.Nil(t, result)
}

func TestImport_HeaderOnly(t *testing.T) {
	result, err := Import(mustParse(t, "leadName,company,email\n"), Options{RoundRobin: true, StartIndex: 1})
	require.NoError(t, err)
	assert.Empty(t, result.Leads)
	assert.Equal(t, 1, result.NextIndex)
}

func TestParse_RecordsLines(t *testing.T) {
	table := mustParse(t, "leadName,company,email\nAlex,Thompson,a@x.io\n\n\"Lisa\nChen\",Chen,l@x.io\nMo,Mo Co,m@x.io\n")
	assert.Equal(t, []int{2, 4, 6}, table.Lines)
}

func TestImport_SkipsRowsWithBlankRequiredCells(t *testing.T) {
	candidates := assignment.AssignableUsers(users.DefaultRoster())
	table := mustParse(t, "leadName,company,email,notes\n"+
		"a,A Co,a@x.io,\n"+
		"b,B Co,,no email\n"+
		" ,C Co, ,\n"+
		"d,D Co,d@x.io,\n")

	result, err := Import(table, Options{RoundRobin: true, Candidates: candidates})
	require.NoError(t, err)

	require.Len(t, result.Leads, 2)
	assert.Equal(t, "a", result.Leads[0].LeadName)
	assert.Equal(t, "d", result.Leads[1].LeadName)
	assert.Equal(t, "user@crm.com", result.Leads[1].AssignedTo)
	assert.Equal(t, 2, result.NextIndex)
	assert.Equal(t, []SkippedRow{
		{Line: 3, Missing: []string{"email"}},
		{Line: 4, Missing: []string{"leadName", "email"}},
	}, result.Skipped)
}

func TestImport_EveryRowSkippedWithoutCandidates(t *testing.T) {
	table := mustParse(t, "leadName,company,email\na,,a@x.io\n")

	result, err := Import(table, Options{RoundRobin: true, StartIndex: 1})
	require.NoError(t, err)
	assert.Empty(t, result.Leads)
	assert.Len(t, result.Skipped, 1)
	assert.Equal(t, 1, result.NextIndex)
}
