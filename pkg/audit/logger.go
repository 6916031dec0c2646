package audit

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log records an audit event
	Log(ctx context.Context, event *Event) error

	// Close flushes and releases the logger
	Close() error
}

// LogrusLogger writes audit events as structured log entries
type LogrusLogger struct {
	log *logrus.Logger
}

// NewLogrusLogger creates an audit logger on top of log
func NewLogrusLogger(log *logrus.Logger) *LogrusLogger {
	if log == nil {
		log = logrus.New()
	}
	return &LogrusLogger{log: log}
}

// Log writes event at info level, or warn when it did not succeed
func (l *LogrusLogger) Log(ctx context.Context, event *Event) error {
	fields := logrus.Fields{
		"audit":      true,
		"event_type": event.Type,
		"status":     event.Status,
	}
	if event.Actor != "" {
		fields["actor"] = event.Actor
	}
	if event.ActorRole != "" {
		fields["actor_role"] = event.ActorRole
	}
	if event.ResourceType != "" {
		fields["resource_type"] = event.ResourceType
		fields["resource_id"] = event.ResourceID
	}
	for k, v := range event.Metadata {
		fields["meta_"+k] = v
	}

	entry := l.log.WithContext(ctx).WithFields(fields).WithTime(event.Timestamp)
	msg := event.Message
	if msg == "" {
		msg = string(event.Type)
	}
	if event.Status == EventStatusSuccess {
		entry.Info(msg)
	} else {
		entry.Warn(msg)
	}
	return nil
}

// Close is a no-op; the underlying logger outlives the audit trail
func (l *LogrusLogger) Close() error {
	return nil
}
