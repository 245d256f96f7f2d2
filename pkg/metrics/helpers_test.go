package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCounter(t *testing.T) {
	registry := prometheus.NewRegistry()

	counter := NewCounter(registry, "test_counter_total", "Test counter")
	counter.Inc()
	counter.Add(5)

	assert.Equal(t, float64(6), testutil.ToFloat64(counter))
}

func TestNewCounterVec(t *testing.T) {
	registry := prometheus.NewRegistry()

	vec := NewCounterVec(registry, "test_results_total", "Results", []string{"result"})
	vec.WithLabelValues("completed").Inc()
	vec.WithLabelValues("completed").Inc()
	vec.WithLabelValues("failed").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(vec.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(vec.WithLabelValues("failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(vec))
}

func TestNewGauge(t *testing.T) {
	registry := prometheus.NewRegistry()

	gauge := NewGauge(registry, "test_hosts", "Test hosts")
	gauge.Set(12)
	assert.Equal(t, float64(12), testutil.ToFloat64(gauge))

	gauge.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(gauge))
}

func TestNewHistogramWithBuckets(t *testing.T) {
	registry := prometheus.NewRegistry()

	histogram := NewHistogramWithBuckets(registry, "test_duration_seconds", "Test duration", DurationBuckets())
	histogram.Observe(0.05)
	histogram.Observe(2.0)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)

	h := families[0].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), h.GetSampleCount())
	assert.InDelta(t, 2.05, h.GetSampleSum(), 0.0001)
	assert.Len(t, h.GetBucket(), len(DurationBuckets()))
}

func TestDurationBuckets(t *testing.T) {
	buckets := DurationBuckets()

	require.NotEmpty(t, buckets)
	for i := 1; i < len(buckets); i++ {
		assert.Greater(t, buckets[i], buckets[i-1], "buckets must be ascending")
	}
	assert.Equal(t, 10.0, buckets[len(buckets)-1])
}

func TestInstanceBasedRegistries(t *testing.T) {
	first := prometheus.NewRegistry()
	second := prometheus.NewRegistry()

	c1 := NewCounter(first, "test_iteration_total", "Per-iteration counter")
	c2 := NewCounter(second, "test_iteration_total", "Per-iteration counter")

	c1.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(c1))
	assert.Equal(t, float64(0), testutil.ToFloat64(c2))
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewCounter(registry, "test_dup_total", "dup")

	assert.Panics(t, func() {
		NewCounter(registry, "test_dup_total", "dup")
	})
}
