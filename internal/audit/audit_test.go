package audit

import (
	"testing"
	"time"

	"github.com/hbnb/hbnb/pkg/hbnb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return NewLogger(zap.New(core)), logs
}

func TestNewLogger(t *testing.T) {
	logger := zap.NewNop()
	auditLogger := NewLogger(logger)
	assert.Equal(t, logger, auditLogger.logger)

	assert.NotNil(t, NewLogger(nil).logger)
}

func TestLogEvent(t *testing.T) {
	auditLogger, logs := newObserved()
	ts := time.Date(2017, 9, 28, 21, 5, 54, 0, time.UTC)

	auditLogger.LogEvent(&Event{
		Type:       EventTypeObjectUpdate,
		Timestamp:  ts,
		Kind:       hbnb.KindUser,
		ID:         "u1",
		Attributes: []string{"email"},
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Audit event", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "object_update", fields["audit_type"])
	assert.Equal(t, ts, fields["audit_timestamp"])
	assert.Equal(t, "User", fields["audit_kind"])
	assert.Equal(t, "u1", fields["audit_id"])
	assert.Equal(t, []interface{}{"email"}, fields["audit_attributes"])
}

func TestLogEvent_NilEvent(t *testing.T) {
	auditLogger, logs := newObserved()

	auditLogger.LogEvent(nil)
	assert.Equal(t, 0, logs.Len())
}

func TestLogEvent_ZeroTimestamp(t *testing.T) {
	auditLogger, _ := newObserved()

	event := &Event{Type: EventTypeObjectDelete}
	auditLogger.LogEvent(event)

	assert.WithinDuration(t, time.Now(), event.Timestamp, time.Minute)
}

func TestLogHelpers(t *testing.T) {
	auditLogger, logs := newObserved()
	state := hbnb.NewState("California")

	auditLogger.LogCreate(state, []string{"name", "created_by"})
	auditLogger.LogUpdate(state, []string{"name"})
	auditLogger.LogDelete(state)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "object_create", entries[0].ContextMap()["audit_type"])
	assert.Equal(t, []interface{}{"created_by", "name"}, entries[0].ContextMap()["audit_attributes"])
	assert.Equal(t, "object_update", entries[1].ContextMap()["audit_type"])
	assert.Equal(t, "object_delete", entries[2].ContextMap()["audit_type"])
	assert.NotContains(t, entries[2].ContextMap(), "audit_attributes")

	for _, entry := range entries {
		assert.Equal(t, state.ID, entry.ContextMap()["audit_id"])
		assert.Equal(t, "State", entry.ContextMap()["audit_kind"])
	}
}
