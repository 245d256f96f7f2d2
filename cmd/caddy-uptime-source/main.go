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

// Package main provides the CLI entrypoint for caddy-uptime-source.
//
// The binary accepts configuration via CLI flags, environment variables, or defaults:
//
//   - Config file: --config flag, CONFIG_FILE env var, or "config.yaml" default
//   - Log level: --log-level flag, LOG_LEVEL env var, or logging.level from the config file
//
// Subcommands:
//
//   - run: poll Caddy and keep the monitor snapshot up to date
//   - extract: run a single cycle and print the snapshot
//   - validate: check a configuration file without contacting Caddy
package main

import (
	"fmt"
	"log/slog"
	"os"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/spf13/cobra"

	"caddy-uptime-source/pkg/controller/configwatcher"
	"caddy-uptime-source/pkg/core/config"
	"caddy-uptime-source/pkg/core/logging"
)

// DefaultConfigFile is the configuration file used when neither the flag
// nor CONFIG_FILE is set.
const DefaultConfigFile = "config.yaml"

// version is set at build time via -ldflags "-X main.version=...".
var version = "v0.1.0"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "caddy-uptime-source",
		Short: "Generate uptime monitors from the hosts Caddy serves",
		Long: `caddy-uptime-source reads the running configuration of a Caddy server
through its admin API, collects every host its routes match on and turns
each one into an uptime monitor definition.

Example usage:
  # Poll continuously and reload when the config file changes
  caddy-uptime-source run --config config.yaml --watch

  # Print the monitors for a Caddy instance once
  caddy-uptime-source extract --url http://caddy:2019/config/

  # Check a configuration file
  caddy-uptime-source validate --config config.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"Path to the configuration file (env: CONFIG_FILE, default: config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"Log level: ERROR, WARNING, INFO or DEBUG (env: LOG_LEVEL)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newExtractCmd(opts))
	root.AddCommand(newValidateCmd(opts))

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// configPath resolves the configuration file.
// Priority: CLI flag > environment variable > default.
func (o *globalOptions) configPath() string {
	if o.configFile != "" {
		return o.configFile
	}
	if env := os.Getenv("CONFIG_FILE"); env != "" {
		return env
	}
	return DefaultConfigFile
}

// loadConfig reads and validates the configuration file.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	path := o.configPath()

	cfg, err := configwatcher.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger builds the process logger from the config, with the flag and
// LOG_LEVEL taking precedence over logging.level, and installs it as the
// slog default.
func (o *globalOptions) setupLogger(cfg *config.Config) *slog.Logger {
	level := o.logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}

	format := logging.FormatText
	if cfg != nil {
		if level == "" {
			level = cfg.Logging.Level
		}
		format = cfg.Logging.Format
	}

	logger := logging.NewLoggerWithWriter(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}
