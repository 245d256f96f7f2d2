// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics provides Prometheus helpers and the HTTP server exposing
// them.
//
// Every constructor takes an explicit prometheus.Registerer. The controller
// creates a fresh registry per iteration, so a configuration reload never
// carries stale series over and never collides with earlier registrations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewCounter creates and registers a counter.
//
//	cycles := metrics.NewCounter(registry, "caddy_source_cycles_total", "Polling cycles run")
//	cycles.Inc()
func NewCounter(registry prometheus.Registerer, name, help string) prometheus.Counter {
	return promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: help,
	})
}

// NewCounterVec creates and registers a counter partitioned by labels.
func NewCounterVec(registry prometheus.Registerer, name, help string, labels []string) *prometheus.CounterVec {
	return promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)
}

// NewGauge creates and registers a gauge.
func NewGauge(registry prometheus.Registerer, name, help string) prometheus.Gauge {
	return promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	})
}

// NewHistogramWithBuckets creates and registers a histogram with the given
// bucket boundaries. Use DurationBuckets for latencies.
//
//	duration := metrics.NewHistogramWithBuckets(
//	    registry,
//	    "caddy_source_cycle_duration_seconds",
//	    "Duration of polling cycles",
//	    metrics.DurationBuckets(),
//	)
//	duration.Observe(0.25)
func NewHistogramWithBuckets(registry prometheus.Registerer, name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: buckets,
	})
}

// DurationBuckets returns buckets in seconds from 10ms up to the 10s default
// fetch timeout.
func DurationBuckets() []float64 {
	return []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}
}
