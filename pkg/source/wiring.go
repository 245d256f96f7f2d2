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

package source

import (
	"fmt"
	"log/slog"
	"net/http"

	"caddy-uptime-source/pkg/caddy"
	"caddy-uptime-source/pkg/core/config"
	"caddy-uptime-source/pkg/entity"
	"caddy-uptime-source/pkg/templating"
)

// FromConfig wires a CaddySource from the loaded configuration.
//
// client may be nil for a plain client; the controller passes a
// traced client when tracing is enabled.
func FromConfig(cfg *config.Config, client *http.Client, logger *slog.Logger) (*CaddySource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("compiled monitor templates", "templates", engine.TemplateNames())

	factory := entity.NewFactory(engine, MonitorDefaults(&cfg.Monitor))
	builder := entity.NewBuilder(EntityOptions(&cfg.Caddy), factory, logger)

	fetcher := caddy.NewFetcher(
		cfg.Caddy.URL,
		caddy.FetchOptions{Timeout: cfg.Caddy.GetTimeout(), Client: client},
		AuthConfig(cfg.Caddy.Auth),
		logger,
	)

	return NewCaddySource(cfg.Caddy.IsEnabled(), fetcher, builder, logger), nil
}

// NewEngine compiles the name prefix, the monitor type and every string in
// monitor.extra into a template engine. A *templating.CompilationError names
// the failing field.
func NewEngine(cfg *config.Config) (*templating.TemplateEngine, error) {
	templates := entity.Templates(cfg.Caddy.MonitorNamePrefix, MonitorDefaults(&cfg.Monitor))
	engine, err := templating.New(templating.EngineTypeGonja, templates)
	if err != nil {
		return nil, fmt.Errorf("failed to compile monitor templates: %w", err)
	}
	return engine, nil
}

// EntityOptions maps the caddy section onto draft options.
func EntityOptions(cc *config.CaddyConfig) entity.Options {
	return entity.Options{
		UseHTTPS:          cc.UsesHTTPS(),
		MonitorNamePrefix: cc.MonitorNamePrefix,
		GroupRef:          cc.ParentName,
	}
}

// MonitorDefaults maps the monitor section onto entity defaults.
func MonitorDefaults(mc *config.MonitorConfig) entity.MonitorDefaults {
	return entity.MonitorDefaults{
		Type:          mc.Type,
		Interval:      mc.Interval,
		RetryInterval: mc.RetryInterval,
		MaxRetries:    mc.MaxRetries,
		Extra:         mc.Extra,
	}
}

// AuthConfig maps the optional auth section onto fetcher auth.
func AuthConfig(ac *config.AuthConfig) *caddy.AuthConfig {
	if ac == nil {
		return nil
	}
	return &caddy.AuthConfig{
		Type:     ac.Type,
		Username: ac.Username,
		Password: ac.Password,
		Token:    ac.Token,
		Headers:  ac.Headers,
	}
}
