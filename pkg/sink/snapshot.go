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

// Package sink hands the entities of a polling cycle to their consumer.
//
// Every sink writes a complete snapshot document:
//
//	source: Caddy
//	generated_at: 2025-01-15T10:30:45Z
//	entities:
//	  caddy/example.com:
//	    name: example.com
//	    type: http
//	    url: https://example.com
//	    ...
//
// A sync engine reads the snapshot and reconciles the monitoring system
// against it. Cycles that failed never reach a sink.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"caddy-uptime-source/pkg/entity"
)

// Supported snapshot formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Sink receives the entities of one successful cycle.
type Sink interface {
	Write(ctx context.Context, pairs []entity.Pair) error

	// Target names the destination for logs and events.
	Target() string
}

// Snapshot is the document written by every sink.
type Snapshot struct {
	Source      string                   `yaml:"source" json:"source"`
	GeneratedAt time.Time                `yaml:"generated_at" json:"generated_at"`
	Entities    map[string]entity.Entity `yaml:"entities" json:"entities"`
}

// NewSnapshot builds a snapshot keyed by entity id. Later pairs win on
// duplicate ids.
func NewSnapshot(source string, pairs []entity.Pair, generatedAt time.Time) *Snapshot {
	entities := make(map[string]entity.Entity, len(pairs))
	for _, pair := range pairs {
		entities[pair.ID] = pair.Entity
	}

	return &Snapshot{
		Source:      source,
		GeneratedAt: generatedAt.UTC(),
		Entities:    entities,
	}
}

// Encode serializes a snapshot. Map keys come out sorted in both formats.
func Encode(snapshot *Snapshot, format string) ([]byte, error) {
	switch format {
	case FormatYAML, "":
		data, err := yaml.Marshal(snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot as YAML: %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot as JSON: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

// EncodeStream serializes a snapshot as one document of a stream: JSON as a
// single line (NDJSON), YAML with a leading document separator.
func EncodeStream(snapshot *Snapshot, format string) ([]byte, error) {
	switch format {
	case FormatYAML, "":
		data, err := Encode(snapshot, format)
		if err != nil {
			return nil, err
		}
		return append([]byte("---\n"), data...), nil
	case FormatJSON:
		data, err := json.Marshal(snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot as JSON: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

// Decode parses a snapshot in the given format.
func Decode(data []byte, format string) (*Snapshot, error) {
	var snapshot Snapshot

	switch format {
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to decode YAML snapshot: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to decode JSON snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}

	return &snapshot, nil
}
