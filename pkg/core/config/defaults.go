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

import "time"

const (
	// DefaultCaddyURL is the default admin API config endpoint.
	DefaultCaddyURL = "http://localhost:2019/config/"

	// DefaultCaddyTimeout is the default timeout of a config fetch.
	DefaultCaddyTimeout = 10 * time.Second

	// DefaultPollInterval is the default time between polling cycles.
	DefaultPollInterval = 30 * time.Second

	// DefaultMonitorType is the default monitor type.
	DefaultMonitorType = "http"

	// DefaultMonitorInterval is the default check interval in seconds.
	DefaultMonitorInterval = 60

	// DefaultMonitorRetryInterval is the default retry interval in seconds.
	DefaultMonitorRetryInterval = 60

	// DefaultMonitorMaxRetries is the default number of retries.
	DefaultMonitorMaxRetries = 3

	// DefaultOutputFormat is the default snapshot format.
	DefaultOutputFormat = "yaml"

	// DefaultMetricsPort is the default port for Prometheus metrics.
	DefaultMetricsPort = 9090

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "INFO"

	// DefaultLogFormat is the default log output format.
	DefaultLogFormat = "text"

	// DefaultServiceName is the default tracing service name.
	DefaultServiceName = "caddy-uptime-source"
)

// setDefaults fills unset fields. Enabled and UseHTTPS stay nil when unset;
// their accessors treat nil as true.
func setDefaults(cfg *Config) {
	// Caddy defaults
	if cfg.Caddy.URL == "" {
		cfg.Caddy.URL = DefaultCaddyURL
	}

	// Monitor defaults
	if cfg.Monitor.Type == "" {
		cfg.Monitor.Type = DefaultMonitorType
	}
	if cfg.Monitor.Interval == 0 {
		cfg.Monitor.Interval = DefaultMonitorInterval
	}
	if cfg.Monitor.RetryInterval == 0 {
		cfg.Monitor.RetryInterval = DefaultMonitorRetryInterval
	}
	if cfg.Monitor.MaxRetries == nil {
		maxRetries := DefaultMonitorMaxRetries
		cfg.Monitor.MaxRetries = &maxRetries
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultOutputFormat
	}

	if cfg.Controller.MetricsPort == 0 {
		cfg.Controller.MetricsPort = DefaultMetricsPort
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultServiceName
	}
}

// GetTimeout returns the fetch timeout, falling back to the default for
// empty or unparsable values.
func (c *CaddyConfig) GetTimeout() time.Duration {
	if c.Timeout != "" {
		if duration, err := time.ParseDuration(c.Timeout); err == nil {
			return duration
		}
	}
	return DefaultCaddyTimeout
}

// GetInterval returns the polling interval, falling back to the default for
// empty or unparsable values.
func (p *PollConfig) GetInterval() time.Duration {
	if p.Interval != "" {
		if duration, err := time.ParseDuration(p.Interval); err == nil {
			return duration
		}
	}
	return DefaultPollInterval
}
