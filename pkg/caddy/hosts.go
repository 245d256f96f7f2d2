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

package caddy

import (
	"sort"
	"strings"
)

// WildcardPrefix is the prefix Caddy uses for wildcard host matchers.
const WildcardPrefix = "*."

// ExtractHosts walks every host matcher reachable from cfg and returns the
// distinct, normalized hostnames sorted in ascending order.
//
// Leading "*." prefixes are stripped from each host. Hosts that are empty after
// stripping (a bare "*.") are dropped. Missing branches contribute nothing,
// so the function never fails and returns an empty slice for an empty config.
func ExtractHosts(cfg *RouteConfig) []string {
	set := make(map[string]struct{})

	if cfg != nil && cfg.Apps != nil && cfg.Apps.HTTP != nil {
		for _, server := range cfg.Apps.HTTP.Servers {
			collectServerHosts(server, set)
		}
	}

	hosts := make([]string, 0, len(set))
	for host := range set {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	return hosts
}

func collectServerHosts(server ServerConfig, set map[string]struct{}) {
	for _, route := range server.Routes {
		for _, rule := range route.Match {
			for _, raw := range rule.Host {
				if host := NormalizeHost(raw); host != "" {
					set[host] = struct{}{}
				}
			}
		}
	}
}

// NormalizeHost strips every leading wildcard prefix from host, so both
// "*.example.com" and "*.*.example.com" become "example.com".
// The result is empty for a bare wildcard.
func NormalizeHost(host string) string {
	for strings.HasPrefix(host, WildcardPrefix) {
		host = host[len(WildcardPrefix):]
	}
	return host
}
