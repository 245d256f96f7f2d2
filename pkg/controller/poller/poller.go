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

// Package poller implements the component that runs one Caddy polling cycle
// immediately and then once per interval.
//
// A cycle fetches, extracts and builds through the source, hands the result
// to the sink and publishes cycle events describing the outcome, including
// fetch failures and hosts whose entity could not be built. Cycles run
// on a single goroutine and never overlap; a slow cycle delays the next tick
// instead of stacking up.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"caddy-uptime-source/pkg/controller/events"
	busevents "caddy-uptime-source/pkg/events"
	"caddy-uptime-source/pkg/sink"
	"caddy-uptime-source/pkg/source"
	"caddy-uptime-source/pkg/tracing"
)

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 30 * time.Second

// Collector is the source side of a cycle. *source.CaddySource implements it.
type Collector interface {
	Name() string
	URL() string
	Enabled() bool
	Collect(ctx context.Context) (*source.Result, error)
}

// Config configures the Poller.
type Config struct {
	// Interval is the time between cycle starts. If not set, DefaultInterval is used.
	Interval time.Duration
}

// Poller drives polling cycles.
type Poller struct {
	source   Collector
	sink     sink.Sink
	eventBus *busevents.EventBus
	logger   *slog.Logger
	tracer   trace.Tracer
	interval time.Duration
}

// New creates a Poller. config may be nil.
func New(src Collector, snk sink.Sink, eventBus *busevents.EventBus, logger *slog.Logger, config *Config) *Poller {
	interval := DefaultInterval
	if config != nil && config.Interval > 0 {
		interval = config.Interval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		source:   src,
		sink:     snk,
		eventBus: eventBus,
		logger:   logger.With("component", "poller"),
		tracer:   tracing.Tracer(),
		interval: interval,
	}
}

// Interval returns the effective polling interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start runs a cycle right away and then on every tick until ctx is
// cancelled. Failed cycles are logged and reported through events; they
// do not stop the loop.
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("Poller starting", "source", p.source.Name(), "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	_ = p.RunCycle(ctx)

	for {
		select {
		case <-ticker.C:
			_ = p.RunCycle(ctx)

		case <-ctx.Done():
			p.logger.Info("Poller shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

// RunCycle performs exactly one cycle and returns its error, if any.
//
// Nothing is written to the sink unless the source produced a result, so a
// failed fetch never replaces the last good snapshot with an empty one.
func (p *Poller) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	logger := p.logger.With("cycle_id", cycleID)

	ctx, span := p.tracer.Start(ctx, "caddy_source.cycle",
		trace.WithAttributes(
			attribute.String("cycle.id", cycleID),
			attribute.String("source", p.source.Name()),
		))
	defer span.End()

	start := time.Now()
	p.eventBus.Publish(events.NewCycleStartedEvent(cycleID, p.source.Name()))

	if !p.source.Enabled() {
		logger.Debug("source disabled, skipping cycle")
		span.SetAttributes(attribute.Bool("cycle.skipped", true))
		p.eventBus.Publish(events.NewCycleSkippedEvent(cycleID, "source disabled"))
		return nil
	}

	result, err := p.source.Collect(ctx)
	if err != nil {
		p.eventBus.Publish(events.NewConfigFetchFailedEvent(p.source.URL(), source.StatusCode(err), err))
		return p.fail(span, logger, cycleID, events.PhaseFetch, err, start)
	}

	for _, failure := range result.Failures {
		p.eventBus.Publish(events.NewEntityBuildFailedEvent(failure.ID, failure.Host, failure.Field, failure.Cause))
	}

	if err := p.sink.Write(ctx, result.Pairs); err != nil {
		return p.fail(span, logger, cycleID, events.PhaseSink, err, start)
	}
	p.eventBus.Publish(events.NewSnapshotWrittenEvent(p.sink.Target(), len(result.Pairs)))

	duration := time.Since(start)
	span.SetAttributes(
		attribute.Int("cycle.hosts", len(result.Hosts)),
		attribute.Int("cycle.entities", len(result.Pairs)),
		attribute.Int("cycle.skipped_hosts", len(result.Failures)),
	)

	logger.Info("cycle completed",
		"hosts", len(result.Hosts),
		"entities", len(result.Pairs),
		"skipped", len(result.Failures),
		"duration_ms", duration.Milliseconds())

	p.eventBus.Publish(events.NewCycleCompletedEvent(
		cycleID,
		len(result.Hosts),
		len(result.Pairs),
		len(result.Failures),
		duration,
	))

	return nil
}

func (p *Poller) fail(span trace.Span, logger *slog.Logger, cycleID, phase string, err error, start time.Time) error {
	duration := time.Since(start)

	span.RecordError(err)
	span.SetStatus(codes.Error, phase+" failed")

	logger.Warn("cycle failed", "phase", phase, "error", err, "duration_ms", duration.Milliseconds())
	p.eventBus.Publish(events.NewCycleFailedEvent(cycleID, phase, err, duration))

	return fmt.Errorf("cycle %s: %s: %w", cycleID, phase, err)
}
