package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestObservability(t *testing.T) (*Observability, *bytes.Buffer) {
	var out bytes.Buffer
	obs, err := NewObservability(Config{
		ServiceName: "hbnb-test",
		Environment: "test",
		Writer:      &out,
		Logger:      zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("Failed to create observability: %v", err)
	}
	return obs, &out
}

func TestNewObservability(t *testing.T) {
	obs, out := newTestObservability(t)

	if obs.Tracer() == nil {
		t.Error("Tracer is nil")
	}
	if obs.RequestCounter() == nil {
		t.Error("RequestCounter is nil")
	}
	if obs.RequestDuration() == nil {
		t.Error("RequestDuration is nil")
	}

	_, span := obs.StartSpan(context.Background(), "store.reload")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := obs.Shutdown(ctx); err != nil {
		t.Errorf("Failed to shutdown observability: %v", err)
	}

	// Shutdown flushes the batched span to the writer
	if !bytes.Contains(out.Bytes(), []byte("store.reload")) {
		t.Error("exported span not written")
	}
}

func TestTraceContextFromContext(t *testing.T) {
	obs, _ := newTestObservability(t)
	defer obs.Shutdown(context.Background())

	ctx, span := obs.StartSpan(context.Background(), "test-operation")
	defer span.End()

	fields := TraceContextFromContext(ctx)

	found := map[string]bool{}
	for _, field := range fields {
		found[field.Key] = true
	}
	if !found["trace_id"] {
		t.Error("trace_id field not found")
	}
	if !found["span_id"] {
		t.Error("span_id field not found")
	}
}

func TestTraceContextFromContext_NoSpan(t *testing.T) {
	if fields := TraceContextFromContext(context.Background()); fields != nil {
		t.Errorf("expected no fields, got %v", fields)
	}
}

func TestLoggerWithTraceContext(t *testing.T) {
	if LoggerWithTraceContext(context.Background(), nil) != nil {
		t.Error("nil base logger must stay nil")
	}

	base := zap.NewNop()
	if LoggerWithTraceContext(context.Background(), base) != base {
		t.Error("logger without span context must be returned unchanged")
	}

	obs, _ := newTestObservability(t)
	defer obs.Shutdown(context.Background())

	ctx, span := obs.StartSpan(context.Background(), "test-operation")
	defer span.End()

	if LoggerWithTraceContext(ctx, base) == base {
		t.Error("expected a derived logger carrying trace fields")
	}
}
