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

// Package config defines the YAML configuration of caddy-uptime-source,
// its defaults and its structural validation.
//
// The package is pure: it parses bytes and checks values. Reading files and
// wiring the parsed values into components happens elsewhere.
package config

// Config is the root configuration.
type Config struct {
	// Caddy configures the Caddy admin endpoint and how hosts become monitors.
	Caddy CaddyConfig `yaml:"caddy"`

	// Monitor holds the fields shared by every generated monitor.
	Monitor MonitorConfig `yaml:"monitor"`

	// Poll configures the polling schedule.
	Poll PollConfig `yaml:"poll"`

	// Output configures where entity snapshots are written.
	Output OutputConfig `yaml:"output"`

	// Controller contains process-level settings (ports, etc.).
	Controller ControllerConfig `yaml:"controller"`

	// Logging configures logging behavior.
	Logging LoggingConfig `yaml:"logging"`

	// Tracing configures OpenTelemetry tracing of admin API requests.
	Tracing TracingConfig `yaml:"tracing"`
}

// CaddyConfig configures the Caddy source.
type CaddyConfig struct {
	// Enabled turns the source on or off. A disabled source produces no
	// monitors and never contacts Caddy.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// URL is the admin API config endpoint.
	// Default: http://localhost:2019/config/
	URL string `yaml:"url"`

	// UseHTTPS selects https (true) or http (false) for monitor URLs.
	// Default: true
	UseHTTPS *bool `yaml:"use_https"`

	// MonitorNamePrefix is prepended to the host to form the monitor name.
	//
	// Example: "Caddy - "
	MonitorNamePrefix string `yaml:"monitor_name_prefix"`

	// ParentName is the id of a group monitor every generated monitor is
	// placed under. Empty means no grouping.
	ParentName string `yaml:"parent_name"`

	// Timeout bounds a single fetch of the config document.
	// Format: Go duration string (e.g., "10s")
	// Default: 10s
	Timeout string `yaml:"timeout"`

	// Auth configures authentication against the admin endpoint.
	Auth *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig configures authentication against the admin endpoint.
type AuthConfig struct {
	// Type is "basic", "bearer" or "header".
	Type string `yaml:"type"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`

	// Headers are added to every request.
	Headers map[string]string `yaml:"headers"`
}

// MonitorConfig holds the monitor fields not derived from the host.
type MonitorConfig struct {
	// Type is the monitor type.
	// Default: http
	Type string `yaml:"type"`

	// Interval is the check interval in seconds.
	// Default: 60
	Interval int `yaml:"interval"`

	// RetryInterval is the retry interval in seconds.
	// Default: 60
	RetryInterval int `yaml:"retry_interval"`

	// MaxRetries is the number of retries before a monitor is marked down.
	// An explicit 0 disables retries.
	// Default: 3 (when unset)
	MaxRetries *int `yaml:"max_retries"`

	// Extra holds additional monitor fields. String values are Gonja
	// templates rendered with host, url, id and name.
	//
	// Example:
	//   description: "Routed by Caddy: {{ host }}"
	Extra map[string]interface{} `yaml:"extra"`
}

// PollConfig configures the polling schedule.
type PollConfig struct {
	// Interval is the time between two polling cycles.
	// Format: Go duration string (e.g., "30s", "5m")
	// Default: 30s
	Interval string `yaml:"interval"`
}

// OutputConfig configures where entity snapshots are written.
type OutputConfig struct {
	// Path is the snapshot file. Empty writes to stdout.
	Path string `yaml:"path"`

	// Format is "yaml" or "json".
	// Default: yaml
	Format string `yaml:"format"`
}

// ControllerConfig contains process-level settings.
type ControllerConfig struct {
	// MetricsPort is the port for Prometheus metrics.
	// Default: 9090
	MetricsPort int `yaml:"metrics_port"`

	// DisableMetrics turns the metrics server off.
	DisableMetrics bool `yaml:"disable_metrics"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is ERROR, WARNING, INFO or DEBUG.
	// Default: INFO
	Level string `yaml:"level"`

	// Format is "text" (logfmt) or "json".
	// Default: text
	Format string `yaml:"format"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled turns tracing on.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP/HTTP collector URL (e.g., http://otel:4318).
	// Empty uses the exporter's environment-based defaults.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// ServiceName is reported as service.name.
	// Default: caddy-uptime-source
	ServiceName string `yaml:"service_name"`
}

// IsEnabled reports whether the Caddy source is enabled.
func (c *CaddyConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// GetMaxRetries returns max_retries, or the default when unset.
func (m *MonitorConfig) GetMaxRetries() int {
	if m.MaxRetries == nil {
		return DefaultMonitorMaxRetries
	}
	return *m.MaxRetries
}

// UsesHTTPS reports whether monitor URLs use https.
func (c *CaddyConfig) UsesHTTPS() bool {
	return c.UseHTTPS == nil || *c.UseHTTPS
}
