package reports

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/platinummonkey/crm/pkg/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 23, 30, 0, 0, time.UTC)
}

func fixtureLeads() []records.Lead {
	return []records.Lead{
		{ID: "1", LeadName: "Alex Thompson", Company: "Thompson Enterprises", Source: "Website", Status: records.StatusNotStarted, AssignedTo: "admin@crm.com", CreatedAt: day(5)},
		{ID: "2", LeadName: "Lisa Chen", Company: "Chen Industries", Source: "LinkedIn", Status: records.StatusInProgress, AssignedTo: "sales@crm.com", CreatedAt: day(20)},
	}
}

func fixtureClients() []records.Client {
	return []records.Client{
		{ID: "1", Name: "John Smith", Company: "Tech Solutions Inc.", Status: records.ClientActive, Location: "New York, USA", CreatedAt: day(15)},
	}
}

func TestBuild_Leads(t *testing.T) {
	report, err := Build(KindLeads, fixtureLeads(), nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lead Name", "Company", "Source", "Status", "Assigned To", "Created At"}, report.Headers)
	assert.Equal(t, [][]string{
		{"Alex Thompson", "Thompson Enterprises", "Website", "not-started", "admin@crm.com", "01/05/2024"},
		{"Lisa Chen", "Chen Industries", "LinkedIn", "in-progress", "sales@crm.com", "01/20/2024"},
	}, report.Rows)
}

func TestBuild_ClientsInLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	report, err := Build(KindClients, nil, fixtureClients(), nil, nil, tokyo)
	require.NoError(t, err)
	assert.Equal(t, []string{"Client Name", "Company", "Status", "Location", "Created At"}, report.Headers)
	assert.Equal(t, [][]string{{"John Smith", "Tech Solutions Inc.", "active", "New York, USA", "01/16/2024"}}, report.Rows)
}

func TestBuild_DateRange(t *testing.T) {
	from := day(5)
	to := day(19)

	report, err := Build(KindLeads, fixtureLeads(), nil, &from, &to, nil)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1, "bounds are inclusive")
	assert.Equal(t, "Alex Thompson", report.Rows[0][0])

	report, err = Build(KindLeads, fixtureLeads(), nil, &from, nil, nil)
	require.NoError(t, err)
	assert.Len(t, report.Rows, 2, "a half-open range is ignored")

	early := day(1)
	_, err = Build(KindLeads, fixtureLeads(), nil, &early, &early, nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(KindClients, fixtureLeads(), nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Build(Kind("finance"), fixtureLeads(), nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownReportKind)

	_, err = ParseKind("finance")
	assert.ErrorIs(t, err, ErrUnknownReportKind)

	k, err := ParseKind("clients")
	require.NoError(t, err)
	assert.Equal(t, KindClients, k)
}

func TestWriteCSV(t *testing.T) {
	report, err := Build(KindClients, nil, fixtureClients(), nil, nil, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))
	assert.Equal(t, "Client Name,Company,Status,Location,Created At\n"+
		"John Smith,Tech Solutions Inc.,active,\"New York, USA\",01/15/2024\n", buf.String())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "leads_report_20240105T233000Z.csv", FileName(KindLeads, day(5)))
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink, err := NewFileSink(dir)
	require.NoError(t, err)

	location, err := sink.Put(context.Background(), "leads.csv", "text/csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "leads.csv"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	_, err = sink.Put(context.Background(), "../escape.csv", "text/csv", nil)
	assert.Error(t, err)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink(t *testing.T) {
	client := &fakeS3{}
	sink := NewS3SinkFromClient(client, "crm-exports", "/reports/")

	location, err := sink.Put(context.Background(), "leads.csv", "text/csv", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "s3://crm-exports/reports/leads.csv", location)
	assert.Equal(t, "crm-exports", aws.ToString(client.input.Bucket))
	assert.Equal(t, "reports/leads.csv", aws.ToString(client.input.Key))
	assert.Equal(t, "text/csv", aws.ToString(client.input.ContentType))
	assert.Equal(t, []byte("x"), client.body)

	noPrefix := NewS3SinkFromClient(client, "crm-exports", "")
	location, err = noPrefix.Put(context.Background(), "clients.csv", "text/csv", []byte("y"))
	require.NoError(t, err)
	assert.Equal(t, "s3://crm-exports/clients.csv", location)

	failing := NewS3SinkFromClient(&fakeS3{err: errors.New("access denied")}, "crm-exports", "")
	_, err = failing.Put(context.Background(), "leads.csv", "text/csv", nil)
	assert.ErrorContains(t, err, "access denied")
}

func TestNewS3Sink_RequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
