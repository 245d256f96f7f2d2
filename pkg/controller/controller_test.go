package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "caddy-uptime-source/pkg/core/config"
	"caddy-uptime-source/pkg/sink"
)

// caddyServer serves a Caddy config with one route matching hosts.
func caddyServer(t *testing.T, hosts ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	doc := map[string]interface{}{
		"apps": map[string]interface{}{
			"http": map[string]interface{}{
				"servers": map[string]interface{}{
					"srv0": map[string]interface{}{
						"routes": []interface{}{
							map[string]interface{}{
								"match": []interface{}{
									map[string]interface{}{"host": hosts},
								},
							},
						},
					},
				},
			},
		},
	}
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	hits := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	return server, hits
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	return server
}

func configYAML(caddyURL, outputPath string) string {
	return fmt.Sprintf(`caddy:
  url: %s/config/
poll:
  interval: 50ms
output:
  path: %q
controller:
  disable_metrics: true
`, caddyURL, outputPath)
}

func loadConfig(t *testing.T, content string) *coreconfig.Config {
	t.Helper()
	cfg, err := coreconfig.LoadConfig(content)
	require.NoError(t, err)
	require.NoError(t, coreconfig.ValidateStructure(cfg))
	return cfg
}

func readSnapshot(path string) (*sink.Snapshot, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	snapshot, err := sink.Decode(data, sink.FormatYAML)
	if err != nil {
		return nil, false
	}
	return snapshot, true
}

func hasEntity(path, id string) bool {
	snapshot, ok := readSnapshot(path)
	if !ok {
		return false
	}
	_, found := snapshot.Entities[id]
	return found
}

func startRun(t *testing.T, cfg *coreconfig.Config, opts Options) context.CancelFunc {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, opts) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("controller did not stop")
		}
	})

	return cancel
}

func TestRunOnce_WritesSnapshotToStdout(t *testing.T) {
	server, _ := caddyServer(t, "example.com", "*.wildcard.com", "example.com")
	cfg := loadConfig(t, fmt.Sprintf("caddy:\n  url: %s/config/\n", server.URL))

	var out bytes.Buffer
	require.NoError(t, RunOnce(context.Background(), cfg, &out, nil))

	snapshot, err := sink.Decode(out.Bytes(), sink.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "Caddy", snapshot.Source)
	assert.Len(t, snapshot.Entities, 2)
	assert.Contains(t, snapshot.Entities, "caddy/example.com")
	assert.Contains(t, snapshot.Entities, "caddy/wildcard.com")
}

func TestRunOnce_JSON(t *testing.T) {
	server, _ := caddyServer(t, "example.com")
	cfg := loadConfig(t, fmt.Sprintf("caddy:\n  url: %s/config/\noutput:\n  format: json\n", server.URL))

	var out bytes.Buffer
	require.NoError(t, RunOnce(context.Background(), cfg, &out, nil))

	snapshot, err := sink.Decode(out.Bytes(), sink.FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, snapshot.Entities, "caddy/example.com")
}

func TestRunOnce_FetchFailure(t *testing.T) {
	server := failingServer(t)
	cfg := loadConfig(t, fmt.Sprintf("caddy:\n  url: %s/config/\n", server.URL))

	var out bytes.Buffer
	err := RunOnce(context.Background(), cfg, &out, nil)

	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestRunOnce_DisabledWritesEmptySnapshot(t *testing.T) {
	server, hits := caddyServer(t, "example.com")
	cfg := loadConfig(t, fmt.Sprintf("caddy:\n  enabled: false\n  url: %s/config/\n", server.URL))

	var out bytes.Buffer
	require.NoError(t, RunOnce(context.Background(), cfg, &out, nil))

	snapshot, err := sink.Decode(out.Bytes(), sink.FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Entities)
	assert.Equal(t, int32(0), hits.Load())
}

func TestRunOnce_NilConfig(t *testing.T) {
	assert.Error(t, RunOnce(context.Background(), nil, nil, nil))
}

func TestRun_NilConfig(t *testing.T) {
	assert.Error(t, Run(context.Background(), nil, Options{}))
}

func TestRun_PollsUntilCancelled(t *testing.T) {
	server, hits := caddyServer(t, "example.com", "www.example.com")
	output := filepath.Join(t.TempDir(), "monitors.yaml")
	cfg := loadConfig(t, configYAML(server.URL, output))

	startRun(t, cfg, Options{})

	require.Eventually(t, func() bool {
		return hasEntity(output, "caddy/www.example.com")
	}, 3*time.Second, 20*time.Millisecond)

	// Polling continues on the configured interval.
	require.Eventually(t, func() bool {
		return hits.Load() >= 3
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRun_FetchFailureKeepsLastSnapshot(t *testing.T) {
	good, _ := caddyServer(t, "example.com")
	output := filepath.Join(t.TempDir(), "monitors.yaml")

	// Seed the output with a snapshot from a healthy cycle.
	require.NoError(t, RunOnce(context.Background(), loadConfig(t, configYAML(good.URL, output)), nil, nil))
	require.True(t, hasEntity(output, "caddy/example.com"))

	bad := failingServer(t)
	startRun(t, loadConfig(t, configYAML(bad.URL, output)), Options{})

	time.Sleep(200 * time.Millisecond)
	assert.True(t, hasEntity(output, "caddy/example.com"))
}

func TestRun_ReloadsOnConfigChange(t *testing.T) {
	first, _ := caddyServer(t, "first.example")
	second, _ := caddyServer(t, "second.example")

	dir := t.TempDir()
	output := filepath.Join(dir, "monitors.yaml")
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML(first.URL, output)), 0o600))

	cfg, err := coreconfig.LoadConfigFile(configPath)
	require.NoError(t, err)

	startRun(t, cfg, Options{ConfigPath: configPath, Watch: true})

	require.Eventually(t, func() bool {
		return hasEntity(output, "caddy/first.example")
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(configPath, []byte(configYAML(second.URL, output)), 0o600))

	require.Eventually(t, func() bool {
		return hasEntity(output, "caddy/second.example")
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRun_InvalidReloadKeepsRunning(t *testing.T) {
	server, hits := caddyServer(t, "example.com")

	dir := t.TempDir()
	output := filepath.Join(dir, "monitors.yaml")
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML(server.URL, output)), 0o600))

	cfg, err := coreconfig.LoadConfigFile(configPath)
	require.NoError(t, err)

	startRun(t, cfg, Options{ConfigPath: configPath, Watch: true})

	require.Eventually(t, func() bool {
		return hasEntity(output, "caddy/example.com")
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(configPath, []byte("output:\n  format: toml\n"), 0o600))
	time.Sleep(300 * time.Millisecond)

	before := hits.Load()
	require.Eventually(t, func() bool {
		return hits.Load() > before+2
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRun_MetricsServerFailure(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	server, _ := caddyServer(t, "example.com")
	cfg := loadConfig(t, fmt.Sprintf("caddy:\n  url: %s/config/\ncontroller:\n  metrics_port: %d\n", server.URL, port))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = Run(ctx, cfg, Options{Stdout: &bytes.Buffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error")
}
