package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLogger struct {
	err    error
	closed bool
}

func (f *failingLogger) Log(context.Context, *Event) error { return f.err }
func (f *failingLogger) Close() error {
	f.closed = true
	return f.err
}

func event(eventType EventType, actor string, at time.Time) *Event {
	return &Event{
		Timestamp: at,
		Type:      eventType,
		Status:    EventStatusSuccess,
		Actor:     actor,
	}
}

func TestMemoryLogger_NewestFirstAndEviction(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemoryLogger(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, m.Log(ctx, event(EventTypeLogin, "sales@crm.com", base.Add(time.Duration(i)*time.Minute))))
	}

	got := m.Events(Filter{})
	require.Len(t, got, 3)
	assert.Equal(t, base.Add(4*time.Minute), got[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Minute), got[2].Timestamp)
}

func TestMemoryLogger_Filter(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemoryLogger(0)

	require.NoError(t, m.Log(ctx, event(EventTypeLogin, "sales@crm.com", base)))
	denied := event(EventTypeAccessDenied, "user@crm.com", base.Add(time.Minute))
	denied.Status = EventStatusDenied
	require.NoError(t, m.Log(ctx, denied))
	require.NoError(t, m.Log(ctx, event(EventTypeLeadImport, "sales@crm.com", base.Add(2*time.Minute))))

	assert.Len(t, m.Events(Filter{Actor: "sales@crm.com"}), 2)
	assert.Len(t, m.Events(Filter{Status: EventStatusDenied}), 1)
	assert.Len(t, m.Events(Filter{Type: EventTypeLeadImport}), 1)
	assert.Len(t, m.Events(Filter{Since: base.Add(time.Minute)}), 2)
	assert.Len(t, m.Events(Filter{Limit: 1}), 1)
	assert.Empty(t, NewMemoryLogger(2).Events(Filter{}))
}

func TestMemoryLogger_CopiesMetadata(t *testing.T) {
	m := NewMemoryLogger(2)
	e := event(EventTypeLeadAssign, "sales@crm.com", time.Now())
	e.Metadata = map[string]interface{}{"count": 2}
	require.NoError(t, m.Log(context.Background(), e))

	e.Metadata["count"] = 99
	assert.Equal(t, 2, m.Events(Filter{})[0].Metadata["count"])
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	l := NewLogrusLogger(log)
	e := event(EventTypeLeadAssign, "sales@crm.com", time.Now())
	e.ResourceType = ResourceTypeLead
	e.Metadata = map[string]interface{}{"count": 2}
	require.NoError(t, l.Log(context.Background(), e))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, true, entry["audit"])
	assert.Equal(t, "data.lead_assign", entry["event_type"])
	assert.Equal(t, "sales@crm.com", entry["actor"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(2), entry["meta_count"])

	buf.Reset()
	e.Status = EventStatusDenied
	require.NoError(t, l.Log(context.Background(), e))
	assert.Contains(t, buf.String(), `"level":"warning"`)
}

func TestMultiLogger(t *testing.T) {
	ctx := context.Background()
	m1 := NewMemoryLogger(4)
	m2 := NewMemoryLogger(4)
	broken := &failingLogger{err: errors.New("disk full")}

	multi := NewMultiLogger(m1, nil, broken, m2)
	err := multi.Log(ctx, event(EventTypeLogout, "user@crm.com", time.Now()))
	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, m1.Events(Filter{}), 1)
	assert.Len(t, m2.Events(Filter{}), 1, "later loggers still receive the event")

	assert.Error(t, multi.Close())
	assert.True(t, broken.closed)
}

func TestFileLogger_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "audit.log")
	l, err := NewFileLogger(FileLoggerConfig{Path: path})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.Log(ctx, event(EventTypeLogin, "admin@crm.com", time.Now())))
	require.NoError(t, l.Log(ctx, event(EventTypeLogout, "admin@crm.com", time.Now())))
	require.NoError(t, l.Close())
	assert.Error(t, l.Log(ctx, event(EventTypeLogin, "admin@crm.com", time.Now())))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var types []EventType
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventTypeLogin, EventTypeLogout}, types)
}

func TestFileLogger_Rotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	l, err := NewFileLogger(FileLoggerConfig{Path: path, MaxSize: 1, MaxFiles: 2})
	require.NoError(t, err)
	defer l.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Log(ctx, event(EventTypeLogin, "admin@crm.com", time.Now())))
	}

	rotated, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	assert.Len(t, rotated, 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestNewFileLogger_RequiresPath(t *testing.T) {
	_, err := NewFileLogger(FileLoggerConfig{})
	assert.Error(t, err)
}
