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
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single config fetch.
const DefaultTimeout = 10 * time.Second

// MaxContentSize is the maximum accepted size of the config document (10MB).
const MaxContentSize = 10 * 1024 * 1024

// userAgent is sent with every request to the admin API.
const userAgent = "caddy-uptime-source/1.0"

// FetchOptions configures how the config document is retrieved.
type FetchOptions struct {
	// Timeout is the HTTP request timeout.
	// Default: 10s
	Timeout time.Duration

	// Client is the HTTP client used for requests.
	// Default: a plain http.Client (the request timeout is applied via context)
	Client *http.Client
}

// WithDefaults returns a copy of the options with default values applied.
func (o FetchOptions) WithDefaults() FetchOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Client == nil {
		o.Client = &http.Client{}
	}
	return o
}

// AuthConfig configures authentication against the admin endpoint.
type AuthConfig struct {
	// Type is the authentication type: "basic", "bearer", or "header".
	Type string

	// Username for basic auth.
	Username string

	// Password for basic auth.
	Password string

	// Token for bearer auth.
	Token string

	// Headers are added to every request (all types).
	Headers map[string]string
}

// Fetcher retrieves and decodes the routing configuration of one Caddy
// instance. A Fetcher holds no state between calls and is safe for
// concurrent use.
type Fetcher struct {
	url    string
	opts   FetchOptions
	auth   *AuthConfig
	logger *slog.Logger
}

// NewFetcher creates a Fetcher for the given admin config URL
// (usually http://localhost:2019/config/).
func NewFetcher(url string, opts FetchOptions, auth *AuthConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		url:    url,
		opts:   opts.WithDefaults(),
		auth:   auth,
		logger: logger.With("component", "caddy-fetcher"),
	}
}

// URL returns the endpoint this fetcher reads from.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch performs a single GET and decodes the body into a RouteConfig.
//
// A non-2xx status returns a *FetchError, a malformed body a *DecodeError.
// On any error the returned config is nil; a partially decoded document is
// never handed out.
func (f *Fetcher) Fetch(ctx context.Context) (*RouteConfig, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: f.url, Cause: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if f.auth != nil {
		addAuthHeaders(req, f.auth)
	}

	start := time.Now()
	resp, err := f.opts.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.url, Cause: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	f.logger.Debug("caddy config response received",
		"url", f.url,
		"status", resp.StatusCode,
		"duration", time.Since(start).String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: f.url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize+1))
	if err != nil {
		return nil, &FetchError{URL: f.url, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}
	if len(body) > MaxContentSize {
		return nil, &FetchError{
			URL:   f.url,
			Cause: fmt.Errorf("response body exceeds maximum size of %d bytes", MaxContentSize),
		}
	}

	return Decode(f.url, body)
}

// Decode parses a config document. source is only used in error messages.
func Decode(source string, body []byte) (*RouteConfig, error) {
	var cfg RouteConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, &DecodeError{URL: source, Cause: err}
	}
	return &cfg, nil
}

// addAuthHeaders adds authentication headers to the request.
func addAuthHeaders(req *http.Request, auth *AuthConfig) {
	switch auth.Type {
	case "basic":
		if auth.Username != "" || auth.Password != "" {
			credentials := base64.StdEncoding.EncodeToString(
				[]byte(auth.Username + ":" + auth.Password))
			req.Header.Set("Authorization", "Basic "+credentials)
		}

	case "bearer":
		if auth.Token != "" {
			req.Header.Set("Authorization", "Bearer "+auth.Token)
		}
	}

	for key, value := range auth.Headers {
		req.Header.Set(key, value)
	}
}
