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
	"time"

	"github.com/spf13/cobra"

	"caddy-uptime-source/pkg/caddy"
	"caddy-uptime-source/pkg/core/config"
	"caddy-uptime-source/pkg/source"
)

type validateOptions struct {
	*globalOptions
	checkCaddy bool
}

func newValidateCmd(global *globalOptions) *cobra.Command {
	opts := &validateOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file: YAML structure, URLs, durations, monitor
defaults and every template in monitor.extra.

With --check-caddy the admin endpoint is also contacted once and the hosts
found in its configuration are listed.

Example usage:
  caddy-uptime-source validate --config config.yaml
  caddy-uptime-source validate --config config.yaml --check-caddy`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.checkCaddy, "check-caddy", false,
		"Fetch the Caddy configuration and list its hosts")

	return cmd
}

func (o *validateOptions) run(out io.Writer) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger := o.setupLogger(cfg)

	fmt.Fprintf(out, "Configuration %s is valid\n", o.configPath())
	printSummary(out, cfg)

	if !o.checkCaddy {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Caddy.GetTimeout()+5*time.Second)
	defer cancel()

	fetcher := caddy.NewFetcher(
		cfg.Caddy.URL,
		caddy.FetchOptions{Timeout: cfg.Caddy.GetTimeout()},
		source.AuthConfig(cfg.Caddy.Auth),
		logger,
	)

	doc, err := fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("caddy check failed: %w", err)
	}

	hosts := caddy.ExtractHosts(doc)
	fmt.Fprintf(out, "\nCaddy at %s serves %d host(s):\n", cfg.Caddy.URL, len(hosts))
	for _, host := range hosts {
		fmt.Fprintf(out, "  - %s\n", host)
	}
	return nil
}

func printSummary(out io.Writer, cfg *config.Config) {
	target := cfg.Output.Path
	if target == "" {
		target = "stdout"
	}

	fmt.Fprintf(out, "  caddy url:      %s\n", cfg.Caddy.URL)
	fmt.Fprintf(out, "  source enabled: %t\n", cfg.Caddy.IsEnabled())
	fmt.Fprintf(out, "  monitor type:   %s\n", cfg.Monitor.Type)
	fmt.Fprintf(out, "  poll interval:  %s\n", cfg.Poll.GetInterval())
	fmt.Fprintf(out, "  output:         %s (%s)\n", target, cfg.Output.Format)
}
