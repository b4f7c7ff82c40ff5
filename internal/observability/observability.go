// Package observability provides OpenTelemetry tracing and metrics setup for hbnb.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.31.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config holds observability configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Writer receives exported spans and metrics. Defaults to os.Stderr.
	Writer io.Writer
	Logger *zap.Logger
}

func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "hbnb"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "1.0.0"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Writer == nil {
		c.Writer = os.Stderr
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Observability owns the tracer and meter providers of the process.
type Observability struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	logger         *zap.Logger

	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
}

// NewObservability builds the providers and installs them globally, so
// spans started by the stores join the request span.
func NewObservability(cfg Config) (*Observability, error) {
	cfg.setDefaults()

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp, err := newTracerProvider(cfg.Writer, res)
	if err != nil {
		return nil, err
	}
	mp, err := newMeterProvider(cfg.Writer, res)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	obs := &Observability{
		tracerProvider: tp,
		meterProvider:  mp,
		tracer:         tp.Tracer(cfg.ServiceName),
		logger:         cfg.Logger,
	}
	if err := obs.createInstruments(mp.Meter(cfg.ServiceName)); err != nil {
		return nil, errors.Join(err, obs.Shutdown(context.Background()))
	}

	obs.logger.Debug("observability initialized", zap.String("service", cfg.ServiceName))
	return obs, nil
}

func newTracerProvider(w io.Writer, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func newMeterProvider(w io.Writer, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	), nil
}

// createInstruments creates the HTTP request instruments.
func (o *Observability) createInstruments(meter metric.Meter) error {
	var err error

	o.requestCounter, err = meter.Int64Counter(
		"hbnb_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request counter: %w", err)
	}

	o.requestDuration, err = meter.Float64Histogram(
		"hbnb_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request duration histogram: %w", err)
	}
	return nil
}

// Tracer returns the OpenTelemetry tracer.
func (o *Observability) Tracer() trace.Tracer {
	return o.tracer
}

// RequestCounter returns the request counter metric.
func (o *Observability) RequestCounter() metric.Int64Counter {
	return o.requestCounter
}

// RequestDuration returns the request duration histogram.
func (o *Observability) RequestDuration() metric.Float64Histogram {
	return o.requestDuration
}

// StartSpan starts a new span with the given name and options.
func (o *Observability) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans and metrics and stops both providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
	}
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
	}
	return errors.Join(errs...)
}
