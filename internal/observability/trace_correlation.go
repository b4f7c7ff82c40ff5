package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TraceContextFromContext returns the trace_id and span_id of the recording
// span in ctx as zap fields, or nil when ctx carries no valid span.
func TraceContextFromContext(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return nil
	}

	sc := span.SpanContext()
	if !sc.IsValid() {
		return nil
	}

	fields := make([]zap.Field, 0, 3)
	fields = append(fields,
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
	if sc.IsSampled() {
		fields = append(fields, zap.Bool("trace_sampled", true))
	}
	return fields
}

// LoggerWithTraceContext derives a logger that tags every entry with the
// span in ctx. Store and request logs share the same trace_id this way.
func LoggerWithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return nil
	}
	if fields := TraceContextFromContext(ctx); len(fields) > 0 {
		return logger.With(fields...)
	}
	return logger
}
