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

package config

import (
	"fmt"
	"net/url"
	"sort"
	"time"
)

// ValidateStructure checks a loaded configuration for invalid values.
// It expects defaults to have been applied (see LoadConfig).
func ValidateStructure(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validateCaddyConfig(&cfg.Caddy); err != nil {
		return fmt.Errorf("caddy: %w", err)
	}

	if err := validateMonitorConfig(&cfg.Monitor); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}

	if err := validatePollConfig(&cfg.Poll); err != nil {
		return fmt.Errorf("poll: %w", err)
	}

	if err := validateOutputConfig(&cfg.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	if err := validateControllerConfig(&cfg.Controller); err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if err := validateTracingConfig(&cfg.Tracing); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	return nil
}

// validateCaddyConfig validates the Caddy source configuration.
func validateCaddyConfig(cc *CaddyConfig) error {
	if err := validateHTTPURL(cc.URL); err != nil {
		return fmt.Errorf("url: %w", err)
	}

	if err := validateDuration(cc.Timeout); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}

	if cc.Auth != nil {
		if err := validateAuthConfig(cc.Auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	return nil
}

// validateAuthConfig validates the admin endpoint authentication.
func validateAuthConfig(ac *AuthConfig) error {
	switch ac.Type {
	case "basic":
		if ac.Username == "" {
			return fmt.Errorf("username cannot be empty for basic auth")
		}
	case "bearer":
		if ac.Token == "" {
			return fmt.Errorf("token cannot be empty for bearer auth")
		}
	case "header":
		if len(ac.Headers) == 0 {
			return fmt.Errorf("headers cannot be empty for header auth")
		}
	default:
		return fmt.Errorf("type must be basic, bearer or header, got %q", ac.Type)
	}

	for key := range ac.Headers {
		if key == "" {
			return fmt.Errorf("header name cannot be empty")
		}
	}

	return nil
}

// validateMonitorConfig validates the monitor defaults and extra field names.
// Templates are compiled when the source is built.
func validateMonitorConfig(mc *MonitorConfig) error {
	if mc.Interval < 1 {
		return fmt.Errorf("interval must be positive, got %d", mc.Interval)
	}

	if mc.RetryInterval < 1 {
		return fmt.Errorf("retry_interval must be positive, got %d", mc.RetryInterval)
	}

	if mc.MaxRetries != nil && *mc.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", *mc.MaxRetries)
	}

	keys := make([]string, 0, len(mc.Extra))
	for key := range mc.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "" {
			return fmt.Errorf("extra field name cannot be empty")
		}
	}

	return nil
}

// validatePollConfig validates the polling schedule.
func validatePollConfig(pc *PollConfig) error {
	if err := validateDuration(pc.Interval); err != nil {
		return fmt.Errorf("interval: %w", err)
	}
	return nil
}

// validateOutputConfig validates the snapshot output.
func validateOutputConfig(oc *OutputConfig) error {
	if oc.Format != "yaml" && oc.Format != "json" {
		return fmt.Errorf("format must be yaml or json, got %q", oc.Format)
	}
	return nil
}

// validateControllerConfig validates the controller configuration.
func validateControllerConfig(cc *ControllerConfig) error {
	if cc.MetricsPort < 1 || cc.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be between 1 and 65535, got %d", cc.MetricsPort)
	}
	return nil
}

// validateLoggingConfig validates the logging configuration.
func validateLoggingConfig(lc *LoggingConfig) error {
	if lc.Format != "text" && lc.Format != "json" {
		return fmt.Errorf("format must be text or json, got %q", lc.Format)
	}
	return nil
}

// validateTracingConfig validates the tracing configuration.
func validateTracingConfig(tc *TracingConfig) error {
	if !tc.Enabled || tc.Endpoint == "" {
		return nil
	}
	if err := validateHTTPURL(tc.Endpoint); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	return nil
}

// validateHTTPURL checks that raw is an absolute http(s) URL.
func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("host cannot be empty in %q", raw)
	}

	return nil
}

// validateDuration checks an optional Go duration string.
func validateDuration(raw string) error {
	if raw == "" {
		return nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", raw)
	}

	return nil
}
