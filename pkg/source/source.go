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

// Package source implements the Caddy entity source: each call to
// GetEntities fetches the live Caddy configuration, extracts its hosts and
// turns every host into a monitor entity.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"caddy-uptime-source/pkg/caddy"
	"caddy-uptime-source/pkg/entity"
)

// Name is the display name of the Caddy source.
const Name = "Caddy"

// Source produces the monitor entities of one polling cycle.
type Source interface {
	Name() string
	Init(ctx context.Context) error
	Shutdown(ctx context.Context) error
	GetEntities(ctx context.Context) ([]entity.Pair, error)
}

// ConfigFetcher retrieves the Caddy configuration document.
// *caddy.Fetcher implements it.
type ConfigFetcher interface {
	Fetch(ctx context.Context) (*caddy.RouteConfig, error)
	URL() string
}

// Result is the outcome of one collection.
type Result struct {
	// Hosts are the normalized, sorted hostnames found in the config.
	Hosts []string

	// Pairs are the entities built, in host order.
	Pairs []entity.Pair

	// Failures are the hosts skipped because their entity could not be built.
	Failures []*entity.BuildError
}

// CaddySource is the Caddy implementation of Source.
//
// A disabled source never touches the network. An enabled source performs
// exactly one fetch per call and keeps no state between calls.
type CaddySource struct {
	enabled bool
	fetcher ConfigFetcher
	builder *entity.Builder
	logger  *slog.Logger
}

var _ Source = (*CaddySource)(nil)

// NewCaddySource creates a source from its collaborators.
func NewCaddySource(enabled bool, fetcher ConfigFetcher, builder *entity.Builder, logger *slog.Logger) *CaddySource {
	if logger == nil {
		logger = slog.Default()
	}

	return &CaddySource{
		enabled: enabled,
		fetcher: fetcher,
		builder: builder,
		logger:  logger.With("component", "caddy-source"),
	}
}

// Name returns "Caddy".
func (s *CaddySource) Name() string {
	return Name
}

// URL returns the admin endpoint the source fetches from.
func (s *CaddySource) URL() string {
	return s.fetcher.URL()
}

// Enabled reports whether the source produces entities.
func (s *CaddySource) Enabled() bool {
	return s.enabled
}

// Init logs the configured endpoint. It performs no I/O.
func (s *CaddySource) Init(_ context.Context) error {
	if !s.enabled {
		s.logger.Info("Caddy source disabled")
		return nil
	}

	s.logger.Info("Caddy source initialized", "url", s.fetcher.URL())
	return nil
}

// Shutdown is a no-op.
func (s *CaddySource) Shutdown(_ context.Context) error {
	return nil
}

// GetEntities returns the (id, entity) pairs for the current Caddy config.
//
// A disabled source returns an empty list. A failed fetch returns no
// entities and the wrapped fetch error; callers must treat that cycle as
// having produced nothing rather than as "zero hosts".
func (s *CaddySource) GetEntities(ctx context.Context) ([]entity.Pair, error) {
	result, err := s.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return result.Pairs, nil
}

// Collect runs one fetch, extract and build pass and reports every stage.
//
// A failed fetch is returned wrapped; hosts whose entity could not be built
// are listed in Result.Failures. Collect publishes nothing itself.
func (s *CaddySource) Collect(ctx context.Context) (*Result, error) {
	if !s.enabled {
		return &Result{Hosts: []string{}, Pairs: []entity.Pair{}}, nil
	}

	cfg, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch Caddy config", "url", s.fetcher.URL(), "error", err)
		return nil, fmt.Errorf("caddy source: %w", err)
	}

	hosts := caddy.ExtractHosts(cfg)
	s.logger.Info("found hosts in Caddy config", "count", len(hosts))

	pairs, failures := s.builder.Build(hosts)

	return &Result{
		Hosts:    hosts,
		Pairs:    pairs,
		Failures: failures,
	}, nil
}

// StatusCode returns the HTTP status carried by a fetch error, or 0 when the
// request never got a response.
func StatusCode(err error) int {
	var fetchErr *caddy.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode
	}
	return 0
}
