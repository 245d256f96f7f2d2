package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, handler http.Handler, path string) (int, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestNewServer(t *testing.T) {
	server := NewServer(":9090", prometheus.NewRegistry())

	assert.NotNil(t, server)
	assert.Equal(t, ":9090", server.Addr())
}

func TestServer_ServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewCounter(registry, "test_cycles_total", "Cycles").Add(2)
	NewGauge(registry, "test_hosts", "Hosts").Set(5)

	code, body := get(t, NewServer(":0", registry).Handler(), "/metrics")

	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "test_cycles_total 2")
	assert.Contains(t, body, "test_hosts 5")
}

func TestServer_Health(t *testing.T) {
	code, body := get(t, NewServer(":0", prometheus.NewRegistry()).Handler(), "/healthz")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)
}

func TestServer_RootListsEndpoints(t *testing.T) {
	server := NewServer(":0", prometheus.NewRegistry())
	server.Handle("/debug/cycles", http.NotFoundHandler())

	code, body := get(t, server.Handler(), "/")

	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `href="/metrics"`)
	assert.Contains(t, body, `href="/healthz"`)
	assert.Contains(t, body, `href="/debug/cycles"`)
}

func TestServer_NotFound(t *testing.T) {
	code, _ := get(t, NewServer(":0", prometheus.NewRegistry()).Handler(), "/nonexistent")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_ExtraHandler(t *testing.T) {
	server := NewServer(":0", prometheus.NewRegistry())
	server.Handle("/debug/cycles", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))

	code, body := get(t, server.Handler(), "/debug/cycles")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "[]", body)
}

func TestServer_StartAndShutdown(t *testing.T) {
	// Reserve a free port, then release it for the server.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	registry := prometheus.NewRegistry()
	NewCounter(registry, "test_started_total", "Started").Inc()

	server := NewServer(addr, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	server := NewServer(listener.Addr().String(), prometheus.NewRegistry())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = server.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error")
}
