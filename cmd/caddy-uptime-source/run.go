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

package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"caddy-uptime-source/pkg/controller"
	"caddy-uptime-source/pkg/tracing"
)

type runOptions struct {
	*globalOptions
	watch bool
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll Caddy and keep the monitor snapshot up to date",
		Long: `Poll the Caddy admin API on the configured interval and write the
generated monitors to the configured output.

A failed poll is logged and leaves the previous snapshot untouched. With
--watch the configuration file is watched and the poller is rebuilt when
it changes; an invalid edit keeps the running configuration.

Example usage:
  # Run with the default config.yaml
  caddy-uptime-source run

  # Reload on configuration changes
  caddy-uptime-source run --config /etc/caddy-uptime-source/config.yaml --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run()
		},
	}

	cmd.Flags().BoolVar(&opts.watch, "watch", false,
		"Reload when the configuration file changes (env: WATCH_CONFIG)")

	return cmd
}

func (o *runOptions) run() error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger := o.setupLogger(cfg)

	if !o.watch {
		if env := os.Getenv("WATCH_CONFIG"); env != "" {
			if watch, err := strconv.ParseBool(env); err == nil {
				o.watch = watch
			}
		}
	}

	// Log detected resource limits for observability
	gomaxprocs := runtime.GOMAXPROCS(0)
	var gomemlimit string
	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		gomemlimit = fmt.Sprintf("%d bytes (%.2f MiB)", limit, float64(limit)/(1024*1024))
	} else {
		gomemlimit = "unlimited"
	}

	logger.Info("caddy-uptime-source starting",
		"version", version,
		"config", o.configPath(),
		"caddy_url", cfg.Caddy.URL,
		"watch", o.watch,
		"gomaxprocs", gomaxprocs,
		"gomemlimit", gomemlimit)

	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing, version, func(err error) {
		logger.Warn("tracing error", "error", err)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	err = controller.Run(ctx, cfg, controller.Options{
		ConfigPath: o.configPath(),
		Watch:      o.watch,
		Logger:     logger,
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("controller failed: %w", err)
	}

	logger.Info("Controller shutdown complete")
	return nil
}
