// Package metrics provides Prometheus metrics for the object store and the web views.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Operation names used as the "op" label.
const (
	OpSave   = "save"
	OpReload = "reload"
	OpClose  = "close"
)

// Collector collects store and HTTP metrics on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// Store metrics
	objects     *prometheus.GaugeVec
	operations  *prometheus.CounterVec
	opErrors    *prometheus.CounterVec
	opDuration  *prometheus.HistogramVec
	objectsSeen *prometheus.CounterVec

	// HTTP metrics
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	lastSave *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector creates a new metrics collector.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()

	// Live objects per kind
	objects := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hbnb_store_objects",
			Help: "Number of live objects in the store",
		},
		[]string{"backend", "kind"},
	)

	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbnb_store_operations_total",
			Help: "Total store persistence operations",
		},
		[]string{"backend", "op"},
	)

	opErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbnb_store_operation_errors_total",
			Help: "Total failed store persistence operations",
		},
		[]string{"backend", "op"},
	)

	// Persistence duration (in seconds)
	opDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hbnb_store_operation_duration_seconds",
			Help:    "Store persistence operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"backend", "op"},
	)

	// Objects written or read by persistence operations
	objectsSeen := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbnb_store_objects_persisted_total",
			Help: "Total objects written by save or read by reload",
		},
		[]string{"backend", "op"},
	)

	lastSave := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hbnb_store_last_save_timestamp_seconds",
			Help: "Unix time of the last successful save",
		},
		[]string{"backend"},
	)

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbnb_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hbnb_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	registry.MustRegister(objects)
	registry.MustRegister(operations)
	registry.MustRegister(opErrors)
	registry.MustRegister(opDuration)
	registry.MustRegister(objectsSeen)
	registry.MustRegister(lastSave)
	registry.MustRegister(requests)
	registry.MustRegister(requestDuration)

	return &Collector{
		registry:        registry,
		objects:         objects,
		operations:      operations,
		opErrors:        opErrors,
		opDuration:      opDuration,
		objectsSeen:     objectsSeen,
		requests:        requests,
		requestDuration: requestDuration,
		lastSave:        lastSave,
		logger:          logger,
	}
}

// SetObjectCounts replaces the live object gauge for backend with counts.
func (c *Collector) SetObjectCounts(backend string, counts map[string]int) {
	if c == nil {
		return
	}
	c.objects.DeletePartialMatch(prometheus.Labels{"backend": backend})
	for kind, n := range counts {
		c.objects.WithLabelValues(backend, kind).Set(float64(n))
	}
}

// RecordOperation records one persistence operation, its duration, the
// number of objects it touched, and whether it failed.
func (c *Collector) RecordOperation(backend, op string, duration time.Duration, objects int, err error) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(backend, op).Inc()
	c.opDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
	if err != nil {
		c.opErrors.WithLabelValues(backend, op).Inc()
		c.logger.Debug("store operation failed",
			zap.String("backend", backend),
			zap.String("op", op),
			zap.Error(err),
		)
		return
	}
	c.objectsSeen.WithLabelValues(backend, op).Add(float64(objects))

	if op == OpSave {
		c.lastSave.WithLabelValues(backend).SetToCurrentTime()
	}
}

// RecordRequest records one served HTTP request.
func (c *Collector) RecordRequest(route, method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// Handler returns an HTTP handler serving the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
