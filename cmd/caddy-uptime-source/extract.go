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
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"caddy-uptime-source/pkg/controller"
	"caddy-uptime-source/pkg/controller/configwatcher"
	"caddy-uptime-source/pkg/core/config"
)

type extractOptions struct {
	*globalOptions
	url    string
	format string
	output string
}

func newExtractCmd(global *globalOptions) *cobra.Command {
	opts := &extractOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run a single cycle and print the generated monitors",
		Long: `Fetch the Caddy configuration once, build the monitors and write the
snapshot to stdout (or --output). Logs go to stderr.

The configuration file is optional for this command: when it does not
exist, defaults are used and --url selects the admin endpoint.

Example usage:
  caddy-uptime-source extract --url http://localhost:2019/config/
  caddy-uptime-source extract --config config.yaml --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Caddy admin config URL (overrides caddy.url)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Snapshot format: yaml or json (overrides output.format)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "Snapshot file, or - for stdout")

	return cmd
}

func (o *extractOptions) run(stdout io.Writer) error {
	cfg, err := o.resolveConfig()
	if err != nil {
		return err
	}
	logger := o.setupLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := controller.RunOnce(ctx, cfg, stdout, logger); err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}
	return nil
}

// resolveConfig loads the config file if present, applies the flag
// overrides and validates the result.
func (o *extractOptions) resolveConfig() (*config.Config, error) {
	path := o.configPath()

	var cfg *config.Config
	if _, err := os.Stat(path); err == nil {
		cfg, err = config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	} else {
		// An empty mapping yields the defaults.
		cfg, err = config.LoadConfig("{}")
		if err != nil {
			return nil, err
		}
	}

	if o.url != "" {
		cfg.Caddy.URL = o.url
	}
	if o.format != "" {
		cfg.Output.Format = o.format
	}
	if o.output == "-" {
		cfg.Output.Path = ""
	} else if o.output != "" {
		cfg.Output.Path = o.output
	}

	if err := configwatcher.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
