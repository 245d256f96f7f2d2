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

// Package entity derives monitor definitions from hostnames.
//
// A Draft holds the fields derived deterministically from one host. The
// Factory turns a Draft into an Entity, the field map handed to the sync
// engine, rendering every string field as a template. The Builder runs both
// steps for a list of hosts and isolates per-host failures.
package entity

// IDPrefix namespaces the ids of entities produced from Caddy hosts.
const IDPrefix = "caddy/"

// Field names of a monitor entity, as understood by AutoKuma.
const (
	FieldType          = "type"
	FieldName          = "name"
	FieldURL           = "url"
	FieldInterval      = "interval"
	FieldRetryInterval = "retryInterval"
	FieldMaxRetries    = "maxretries"
	FieldParentName    = "parent_name"
)

// Draft is an unrendered monitor definition derived from one host.
type Draft struct {
	// ID is IDPrefix followed by the host. Identical hosts always yield
	// identical ids, which the sync engine uses as entity keys.
	ID string

	// Host is the normalized hostname the draft was derived from.
	Host string

	// Name is the display name: the optional prefix followed by the host.
	Name string

	// URL is "<protocol>://<host>".
	URL string

	// GroupRef is the parent group id, empty when no grouping is configured.
	GroupRef string
}

// Entity is a rendered monitor definition keyed by field name.
type Entity map[string]interface{}

// Pair associates an entity with its id.
type Pair struct {
	ID     string
	Entity Entity
}

// Options controls how drafts are derived from hosts.
type Options struct {
	// UseHTTPS selects https (true) or http (false) for monitor URLs.
	UseHTTPS bool

	// MonitorNamePrefix is prepended to the host to form the display name.
	MonitorNamePrefix string

	// GroupRef is attached to every draft when non-empty.
	GroupRef string
}

// Protocol returns the URL scheme selected by the options.
func (o Options) Protocol() string {
	if o.UseHTTPS {
		return "https"
	}
	return "http"
}

// NewDraft derives the draft for a single host.
func NewDraft(host string, opts Options) Draft {
	return Draft{
		ID:       IDPrefix + host,
		Host:     host,
		Name:     opts.MonitorNamePrefix + host,
		URL:      opts.Protocol() + "://" + host,
		GroupRef: opts.GroupRef,
	}
}

// NewDrafts derives one draft per host, preserving order.
func NewDrafts(hosts []string, opts Options) []Draft {
	drafts := make([]Draft, 0, len(hosts))
	for _, host := range hosts {
		drafts = append(drafts, NewDraft(host, opts))
	}
	return drafts
}
