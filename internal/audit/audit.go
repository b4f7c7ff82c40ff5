// Package audit provides structured audit logging of object mutations.
//
// Every event is logged through zap at Info level with these fields:
//   - audit_type: object_create, object_update or object_delete
//   - audit_timestamp: when the event occurred
//   - audit_kind: the object kind, e.g. State
//   - audit_id: the object id
//   - audit_attributes: the attributes that were set (optional)
//
// Example audit log entry:
//
//	{
//	  "level": "info",
//	  "msg": "Audit event",
//	  "audit_type": "object_update",
//	  "audit_timestamp": "2026-10-17T10:44:43.400Z",
//	  "audit_kind": "User",
//	  "audit_id": "8f6c...",
//	  "audit_attributes": ["first_name"]
//	}
package audit

import (
	"sort"
	"time"

	"github.com/hbnb/hbnb/pkg/hbnb"
	"go.uber.org/zap"
)

// EventType represents the type of audit event.
type EventType string

const (
	EventTypeObjectCreate EventType = "object_create"
	EventTypeObjectUpdate EventType = "object_update"
	EventTypeObjectDelete EventType = "object_delete"
)

// Event represents a structured audit log event.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Kind      string
	ID        string
	// Attributes lists the attribute names that were set. Values are never
	// logged, since they may hold passwords.
	Attributes []string
}

// Logger provides structured audit logging.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a new audit logger.
func NewLogger(baseLogger *zap.Logger) *Logger {
	if baseLogger == nil {
		baseLogger = zap.NewNop()
	}
	return &Logger{
		logger: baseLogger,
	}
}

// LogEvent logs an audit event.
func (l *Logger) LogEvent(event *Event) {
	if event == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	fields := []zap.Field{
		zap.String("audit_type", string(event.Type)),
		zap.Time("audit_timestamp", event.Timestamp),
		zap.String("audit_kind", event.Kind),
		zap.String("audit_id", event.ID),
	}
	if len(event.Attributes) > 0 {
		fields = append(fields, zap.Strings("audit_attributes", event.Attributes))
	}

	l.logger.Info("Audit event", fields...)
}

// LogCreate logs the creation of e with the given attributes set.
func (l *Logger) LogCreate(e hbnb.Entity, attributes []string) {
	l.log(EventTypeObjectCreate, e, attributes)
}

// LogUpdate logs an update of the given attributes of e.
func (l *Logger) LogUpdate(e hbnb.Entity, attributes []string) {
	l.log(EventTypeObjectUpdate, e, attributes)
}

// LogDelete logs the deletion of e.
func (l *Logger) LogDelete(e hbnb.Entity) {
	l.log(EventTypeObjectDelete, e, nil)
}

func (l *Logger) log(t EventType, e hbnb.Entity, attributes []string) {
	sorted := append([]string(nil), attributes...)
	sort.Strings(sorted)
	l.LogEvent(&Event{
		Type:       t,
		Kind:       e.GetKind(),
		ID:         e.GetID(),
		Attributes: sorted,
	})
}
