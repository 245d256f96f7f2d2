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

package metrics

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves a Prometheus registry over HTTP, plus any extra read-only
// endpoints mounted with Handle (cycle history, health).
//
// Create one Server per controller iteration together with its registry.
type Server struct {
	addr     string
	registry prometheus.Gatherer
	mux      *http.ServeMux
	server   *http.Server
	logger   *slog.Logger
	extra    []string
}

// NewServer creates a metrics server listening on addr (e.g. ":9090").
//
//	registry := prometheus.NewRegistry()
//	server := metrics.NewServer(":9090", registry)
//	go server.Start(ctx)
func NewServer(addr string, registry prometheus.Gatherer) *Server {
	s := &Server{
		addr:     addr,
		registry: registry,
		mux:      http.NewServeMux(),
		logger:   slog.Default().With("component", "metrics-server"),
	}

	s.mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handle mounts an additional handler. It must be called before Start.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.extra = append(s.extra, pattern)
}

// Handler returns the server's request router.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on the configured address and blocks until ctx is cancelled,
// then shuts down gracefully with a 10 second deadline.
func (s *Server) Start(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		s.logger.Info("Starting metrics server", "addr", s.addr)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Metrics server error", "error", err)
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Metrics server shutting down", "reason", ctx.Err())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Metrics server shutdown error", "error", err)
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		s.logger.Info("Metrics server stopped")
		return nil

	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// handleRoot renders a landing page linking every endpoint.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	links := append([]string{"/metrics", "/healthz"}, s.extra...)
	sort.Strings(links[2:])

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html>\n<html>\n<head><title>caddy-uptime-source</title></head>\n<body>\n<h1>caddy-uptime-source</h1>\n<ul>\n")
	for _, link := range links {
		escaped := html.EscapeString(link)
		fmt.Fprintf(w, "<li><a href=\"%s\">%s</a></li>\n", escaped, escaped)
	}
	fmt.Fprint(w, "</ul>\n</body>\n</html>\n")
}

// Addr returns the address the server is configured to listen on.
func (s *Server) Addr() string {
	return s.addr
}
