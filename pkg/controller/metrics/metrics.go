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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pkgmetrics "caddy-uptime-source/pkg/metrics"
)

// Cycle results used as the "result" label of CyclesTotal.
const (
	ResultCompleted = "completed"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
)

// Metrics holds the Prometheus metrics of one controller iteration.
//
// Create one instance per iteration with a fresh registry; a config reload
// discards both together.
type Metrics struct {
	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleErrors   *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	LastSuccess   prometheus.Gauge

	// Result metrics
	Hosts        prometheus.Gauge
	Entities     prometheus.Gauge
	EntityErrors prometheus.Counter

	// Controller metrics
	ConfigReloads *prometheus.CounterVec
	EventsTotal   *prometheus.CounterVec
}

// New creates all metrics and registers them with registry.
//
//	registry := prometheus.NewRegistry()
//	m := metrics.New(registry)
func New(registry prometheus.Registerer) *Metrics {
	return &Metrics{
		CyclesTotal: pkgmetrics.NewCounterVec(
			registry,
			"caddy_source_cycles_total",
			"Total number of polling cycles by result",
			[]string{"result"},
		),
		CycleErrors: pkgmetrics.NewCounterVec(
			registry,
			"caddy_source_cycle_errors_total",
			"Total number of failed polling cycles by phase",
			[]string{"phase"},
		),
		CycleDuration: pkgmetrics.NewHistogramWithBuckets(
			registry,
			"caddy_source_cycle_duration_seconds",
			"Time spent in polling cycles",
			pkgmetrics.DurationBuckets(),
		),
		LastSuccess: pkgmetrics.NewGauge(
			registry,
			"caddy_source_last_success_timestamp_seconds",
			"Unix time of the last completed polling cycle",
		),

		Hosts: pkgmetrics.NewGauge(
			registry,
			"caddy_source_hosts",
			"Number of distinct hosts found in the last completed cycle",
		),
		Entities: pkgmetrics.NewGauge(
			registry,
			"caddy_source_entities",
			"Number of entities produced by the last completed cycle",
		),
		EntityErrors: pkgmetrics.NewCounter(
			registry,
			"caddy_source_entity_errors_total",
			"Total number of hosts skipped because their entity could not be built",
		),

		ConfigReloads: pkgmetrics.NewCounterVec(
			registry,
			"caddy_source_config_reloads_total",
			"Total number of configuration reload attempts by result",
			[]string{"result"},
		),
		EventsTotal: pkgmetrics.NewCounterVec(
			registry,
			"caddy_source_events_total",
			"Total number of events observed on the event bus by type",
			[]string{"type"},
		),
	}
}

// RecordCycleCompleted records a successful cycle and its result sizes.
func (m *Metrics) RecordCycleCompleted(duration time.Duration, hosts, entities int, at time.Time) {
	m.CyclesTotal.WithLabelValues(ResultCompleted).Inc()
	m.CycleDuration.Observe(duration.Seconds())
	m.Hosts.Set(float64(hosts))
	m.Entities.Set(float64(entities))
	m.LastSuccess.Set(float64(at.Unix()))
}

// RecordCycleFailed records a failed cycle. The host and entity gauges keep
// the values of the last completed cycle.
func (m *Metrics) RecordCycleFailed(duration time.Duration, phase string) {
	m.CyclesTotal.WithLabelValues(ResultFailed).Inc()
	m.CycleErrors.WithLabelValues(phase).Inc()
	m.CycleDuration.Observe(duration.Seconds())
}

// RecordCycleSkipped records a cycle of a disabled source.
func (m *Metrics) RecordCycleSkipped() {
	m.CyclesTotal.WithLabelValues(ResultSkipped).Inc()
	m.Hosts.Set(0)
	m.Entities.Set(0)
}

// RecordEntityError records one skipped host.
func (m *Metrics) RecordEntityError() {
	m.EntityErrors.Inc()
}

// RecordConfigReload records a reload attempt.
func (m *Metrics) RecordConfigReload(success bool) {
	result := "success"
	if !success {
		result = "invalid"
	}
	m.ConfigReloads.WithLabelValues(result).Inc()
}

// RecordEvent records one event observed on the bus.
func (m *Metrics) RecordEvent(eventType string) {
	m.EventsTotal.WithLabelValues(eventType).Inc()
}
