package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCollector_SetObjectCounts(t *testing.T) {
	collector := NewCollector(zap.NewNop())

	collector.SetObjectCounts("file", map[string]int{"State": 2, "City": 5})
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.objects.WithLabelValues("file", "State")))
	assert.Equal(t, float64(5), testutil.ToFloat64(collector.objects.WithLabelValues("file", "City")))

	// Kinds missing from the new counts are dropped
	collector.SetObjectCounts("file", map[string]int{"State": 1})
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.objects.WithLabelValues("file", "State")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.objects))
}

func TestCollector_RecordOperation(t *testing.T) {
	collector := NewCollector(zap.NewNop())

	collector.RecordOperation("file", OpSave, time.Millisecond, 3, nil)
	collector.RecordOperation("file", OpSave, time.Millisecond, 0, errors.New("disk full"))

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.operations.WithLabelValues("file", OpSave)))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.opErrors.WithLabelValues("file", OpSave)))
	assert.Equal(t, float64(3), testutil.ToFloat64(collector.objectsSeen.WithLabelValues("file", OpSave)))

	last := testutil.ToFloat64(collector.lastSave.WithLabelValues("file"))
	assert.WithinDuration(t, time.Now(), time.Unix(int64(last), 0), time.Minute)

	// Failed saves and other operations leave it unset
	collector.RecordOperation("badger", OpSave, time.Millisecond, 0, errors.New("disk full"))
	collector.RecordOperation("badger", OpReload, time.Millisecond, 1, nil)
	assert.Equal(t, 1, testutil.CollectAndCount(collector.lastSave))
}

func TestCollector_RecordRequest(t *testing.T) {
	collector := NewCollector(zap.NewNop())

	collector.RecordRequest("/states", http.MethodGet, http.StatusOK, 10*time.Millisecond)
	collector.RecordRequest("/states", http.MethodGet, http.StatusOK, 20*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.requests.WithLabelValues("/states", http.MethodGet, "200")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var collector *Collector

	assert.NotPanics(t, func() {
		collector.SetObjectCounts("file", map[string]int{"State": 1})
		collector.RecordOperation("file", OpReload, time.Millisecond, 1, nil)
		collector.RecordRequest("/", http.MethodGet, http.StatusOK, time.Millisecond)
	})
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(zap.NewNop())
	collector.RecordOperation("file", OpSave, time.Millisecond, 1, nil)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hbnb_store_operations_total")
	assert.Contains(t, rec.Body.String(), `hbnb_store_last_save_timestamp_seconds{backend="file"}`)
}
