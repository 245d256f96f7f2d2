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

// Package controller wires the Caddy source, the snapshot sink and the
// supporting components into a running process.
//
// The controller follows an event-driven architecture with a reinitialization loop:
// 1. Create the EventBus and the long-lived components (metrics, cycle history)
// 2. Build the source, sink and poller from the current configuration
// 3. Poll until the configuration file changes
// 4. Reinitialize the per-configuration components on valid changes
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"caddy-uptime-source/pkg/controller/configwatcher"
	"caddy-uptime-source/pkg/controller/events"
	"caddy-uptime-source/pkg/controller/history"
	"caddy-uptime-source/pkg/controller/metrics"
	"caddy-uptime-source/pkg/controller/poller"
	coreconfig "caddy-uptime-source/pkg/core/config"
	busevents "caddy-uptime-source/pkg/events"
	pkgmetrics "caddy-uptime-source/pkg/metrics"
	"caddy-uptime-source/pkg/sink"
	"caddy-uptime-source/pkg/source"
	"caddy-uptime-source/pkg/tracing"
)

const (
	// RetryDelay is the duration to wait before retrying after an iteration failure.
	RetryDelay = 5 * time.Second

	// EventBusCapacity bounds the events buffered before the bus starts.
	EventBusCapacity = 100
)

// Options configures Run.
type Options struct {
	// ConfigPath is the file the configuration was loaded from. It is used
	// for reload events and, with Watch, for watching.
	ConfigPath string

	// Watch reloads the configuration when ConfigPath changes.
	Watch bool

	// Stdout receives snapshots when no output path is configured.
	// Default: os.Stdout
	Stdout io.Writer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Run is the main entry point for the controller.
//
// Settings under controller, logging and tracing are read once. Reloads
// rebuild the source, sink and poller from the caddy, monitor, poll and
// output sections; an invalid file keeps the previous configuration running.
//
// Returns nil when ctx is cancelled and an error if the long-lived
// components (such as the metrics server) cannot run.
func Run(ctx context.Context, cfg *coreconfig.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	opts = withDefaults(opts)
	logger := opts.Logger

	bus := busevents.NewEventBus(EventBusCapacity)

	registry := prometheus.NewRegistry()
	metricsComponent := metrics.NewComponent(metrics.New(registry), bus)
	metricsComponent.Start()

	cycles := history.NewComponent(history.DefaultSize, bus)
	cycles.Start()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCancel(gCtx, metricsComponent.Run(gCtx))
	})
	g.Go(func() error {
		return ignoreCancel(gCtx, cycles.Run(gCtx))
	})

	if cfg.Controller.DisableMetrics {
		logger.Info("Metrics server disabled")
	} else {
		server := pkgmetrics.NewServer(fmt.Sprintf(":%d", cfg.Controller.MetricsPort), registry)
		server.Handle("/debug/cycles", cycles)
		g.Go(func() error {
			return server.Start(gCtx)
		})
	}

	bus.Start()

	g.Go(func() error {
		return reinitLoop(gCtx, cfg, bus, opts)
	})

	err := g.Wait()
	if ctx.Err() != nil {
		logger.Info("Controller shutting down", "reason", ctx.Err())
		return nil
	}
	return err
}

// reinitLoop runs iterations until ctx is cancelled. It never returns an
// error: failed iterations are retried after RetryDelay.
func reinitLoop(ctx context.Context, cfg *coreconfig.Config, bus *busevents.EventBus, opts Options) error {
	logger := opts.Logger

	for {
		next, err := runIteration(ctx, cfg, bus, opts)
		if ctx.Err() != nil {
			bus.Publish(events.NewControllerShutdownEvent(ctx.Err().Error()))
			return nil
		}

		if err != nil {
			logger.Error("Controller iteration failed, retrying",
				"error", err,
				"retry_delay", RetryDelay)

			select {
			case <-time.After(RetryDelay):
				continue
			case <-ctx.Done():
				bus.Publish(events.NewControllerShutdownEvent(ctx.Err().Error()))
				return nil
			}
		}

		if next != nil {
			logger.Info("Configuration change detected, triggering reinitialization",
				"path", opts.ConfigPath)
			cfg = next
		}
	}
}

// runIteration runs the per-configuration components until the
// configuration changes (returning the new one), ctx is cancelled, or a
// component fails.
func runIteration(ctx context.Context, cfg *coreconfig.Config, bus *busevents.EventBus, opts Options) (*coreconfig.Config, error) {
	logger := opts.Logger
	logger.Info("Starting controller iteration")

	iterCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, err := source.FromConfig(cfg, tracing.HTTPClient(cfg.Tracing.Enabled), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	if err := src.Init(iterCtx); err != nil {
		return nil, fmt.Errorf("failed to initialize source: %w", err)
	}
	defer func() {
		if err := src.Shutdown(context.Background()); err != nil {
			logger.Warn("Source shutdown failed", "error", err)
		}
	}()

	snk := sink.New(cfg.Output.Path, cfg.Output.Format, src.Name(), opts.Stdout, logger)
	p := poller.New(src, snk, bus, logger, &poller.Config{Interval: cfg.Poll.GetInterval()})

	bus.Publish(events.NewControllerStartedEvent(src.Name(), p.Interval()))

	changed := make(chan *coreconfig.Config, 1)

	g, gCtx := errgroup.WithContext(iterCtx)
	g.Go(func() error {
		return p.Start(gCtx)
	})

	if opts.Watch && opts.ConfigPath != "" {
		watcher := configwatcher.New(opts.ConfigPath, cfg, logger)
		g.Go(func() error {
			return watcher.Run(gCtx, configwatcher.Callbacks{
				OnChange: func(next *coreconfig.Config) {
					bus.Publish(events.NewConfigReloadedEvent(opts.ConfigPath))
					select {
					case changed <- next:
					default:
					}
				},
				OnInvalid: func(err error) {
					bus.Publish(events.NewConfigInvalidEvent(opts.ConfigPath, err))
				},
			})
		})
	}

	logger.Info("Controller iteration initialized successfully - entering event loop",
		"source", src.Name(),
		"target", snk.Target(),
		"interval", p.Interval())

	select {
	case next := <-changed:
		cancel()
		if err := g.Wait(); err != nil {
			logger.Warn("Iteration components stopped with error", "error", err)
		}
		return next, nil

	case <-gCtx.Done():
		err := g.Wait()
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, err
	}
}

// RunOnce performs a single polling cycle with cfg and writes the snapshot
// to the configured output (stdout when no path is set).
//
// A disabled source writes an empty snapshot.
func RunOnce(ctx context.Context, cfg *coreconfig.Config, stdout io.Writer, logger *slog.Logger) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	opts := withDefaults(Options{Stdout: stdout, Logger: logger})

	bus := busevents.NewEventBus(EventBusCapacity)

	src, err := source.FromConfig(cfg, tracing.HTTPClient(cfg.Tracing.Enabled), opts.Logger)
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}
	snk := sink.New(cfg.Output.Path, cfg.Output.Format, src.Name(), opts.Stdout, opts.Logger)

	if !src.Enabled() {
		return snk.Write(ctx, nil)
	}
	return poller.New(src, snk, bus, opts.Logger, nil).RunCycle(ctx)
}

func withDefaults(opts Options) Options {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

func ignoreCancel(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}
