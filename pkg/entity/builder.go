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

package entity

import (
	"errors"
	"log/slog"
)

// Builder derives entities for a list of hosts.
type Builder struct {
	opts    Options
	factory *Factory
	logger  *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options, factory *Factory, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		opts:    opts,
		factory: factory,
		logger:  logger.With("component", "entity-builder"),
	}
}

// Options returns the options drafts are derived with.
func (b *Builder) Options() Options {
	return b.opts
}

// Build returns one entity per host in input order.
//
// Hosts whose entity cannot be created are logged at warning level and
// left out; their errors are returned alongside the entities. Build itself
// never fails.
func (b *Builder) Build(hosts []string) ([]Pair, []*BuildError) {
	pairs := make([]Pair, 0, len(hosts))
	var failures []*BuildError

	if b.opts.GroupRef != "" {
		b.logger.Debug("monitors will be organized under parent group", "parent_name", b.opts.GroupRef)
	}

	for _, draft := range NewDrafts(hosts, b.opts) {
		entity, err := b.factory.Create(draft)
		if err != nil {
			buildErr := asBuildError(draft, err)
			b.logger.Warn("failed to create entity for host",
				"host", draft.Host,
				"id", draft.ID,
				"field", buildErr.Field,
				"error", buildErr.Cause)
			failures = append(failures, buildErr)
			continue
		}

		b.logger.Debug("created monitor for host", "host", draft.Host, "id", draft.ID)
		pairs = append(pairs, Pair{ID: draft.ID, Entity: entity})
	}

	return pairs, failures
}

func asBuildError(d Draft, err error) *BuildError {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return buildErr
	}
	return &BuildError{ID: d.ID, Host: d.Host, Cause: err}
}
