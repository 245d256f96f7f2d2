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

// Package caddy reads the routing configuration of a Caddy server through its
// admin API and reduces it to the set of hostnames Caddy serves.
//
// The package is split into three parts:
//   - model.go: the subset of Caddy's JSON config this package understands
//   - hosts.go: host extraction and normalization
//   - fetcher.go: retrieval of the config document over HTTP
package caddy

// RouteConfig is the root of the document returned by GET /config/.
//
// Only the path apps.http.servers[*].routes[*].match[*].host is modeled.
// Every level is optional; unknown fields are ignored by the JSON decoder.
type RouteConfig struct {
	Apps *Apps `json:"apps,omitempty"`
}

// Apps holds the configured Caddy apps.
type Apps struct {
	HTTP *HTTPApp `json:"http,omitempty"`
}

// HTTPApp is the "http" app.
type HTTPApp struct {
	// Servers maps server names (srv0, srv1, ...) to their configuration.
	Servers map[string]ServerConfig `json:"servers,omitempty"`
}

// ServerConfig is a single HTTP server.
type ServerConfig struct {
	Routes []RouteEntry `json:"routes,omitempty"`
}

// RouteEntry is one route of a server.
type RouteEntry struct {
	Match []MatchRule `json:"match,omitempty"`
}

// MatchRule is one matcher set of a route.
type MatchRule struct {
	Host []string `json:"host,omitempty"`
}
