package sink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caddy-uptime-source/pkg/entity"
)

var fixedTime = time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC)

func samplePairs() []entity.Pair {
	return []entity.Pair{
		{ID: "caddy/example.com", Entity: entity.Entity{
			"type": "http", "name": "example.com", "url": "https://example.com",
			"interval": 60, "retryInterval": 60, "maxretries": 3,
		}},
		{ID: "caddy/www.example.com", Entity: entity.Entity{
			"type": "http", "name": "www.example.com", "url": "https://www.example.com",
			"interval": 60, "retryInterval": 60, "maxretries": 3,
		}},
	}
}

func TestNewSnapshot(t *testing.T) {
	snapshot := NewSnapshot("Caddy", samplePairs(), fixedTime)

	assert.Equal(t, "Caddy", snapshot.Source)
	assert.Equal(t, fixedTime, snapshot.GeneratedAt)
	assert.Len(t, snapshot.Entities, 2)
	assert.Equal(t, "https://www.example.com", snapshot.Entities["caddy/www.example.com"]["url"])
}

func TestNewSnapshot_Empty(t *testing.T) {
	snapshot := NewSnapshot("Caddy", nil, fixedTime)

	data, err := Encode(snapshot, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entities": {}`)
}

func TestEncode_YAML(t *testing.T) {
	data, err := Encode(NewSnapshot("Caddy", samplePairs(), fixedTime), FormatYAML)
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "source: Caddy\n"), out)
	assert.Contains(t, out, "generated_at: 2025-01-15T10:30:45Z")
	assert.Contains(t, out, "caddy/example.com:")
	assert.Contains(t, out, "url: https://example.com")
	assert.Less(t, strings.Index(out, "caddy/example.com:"), strings.Index(out, "caddy/www.example.com:"))
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	_, err := Encode(NewSnapshot("Caddy", nil, fixedTime), "toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported snapshot format")

	_, err = Decode([]byte("{}"), "toml")
	assert.Error(t, err)
}

func TestFileSink_WritesSnapshot(t *testing.T) {
	for _, format := range []string{FormatYAML, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", "entities."+format)
			s := NewFileSink(path, format, "Caddy", nil)
			s.now = func() time.Time { return fixedTime }

			require.NoError(t, s.Write(context.Background(), samplePairs()))
			assert.Equal(t, path, s.Target())

			data, err := os.ReadFile(path)
			require.NoError(t, err)

			snapshot, err := Decode(data, format)
			require.NoError(t, err)
			assert.Equal(t, "Caddy", snapshot.Source)
			assert.True(t, fixedTime.Equal(snapshot.GeneratedAt))
			require.Len(t, snapshot.Entities, 2)
			assert.Equal(t, "example.com", snapshot.Entities["caddy/example.com"]["name"])
		})
	}
}

func TestFileSink_ReplacesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entities.yaml")
	s := NewFileSink(path, FormatYAML, "Caddy", nil)

	require.NoError(t, s.Write(context.Background(), samplePairs()))
	require.NoError(t, s.Write(context.Background(), samplePairs()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	snapshot, err := Decode(data, FormatYAML)
	require.NoError(t, err)
	assert.Len(t, snapshot.Entities, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "entities.yaml", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileSink_CancelledContextKeepsPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.json")
	s := NewFileSink(path, FormatJSON, "Caddy", nil)
	require.NoError(t, s.Write(context.Background(), samplePairs()))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Write(ctx, nil), context.Canceled)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileSink_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := NewFileSink(filepath.Join(blocker, "entities.yaml"), FormatYAML, "Caddy", nil)
	assert.Error(t, s.Write(context.Background(), samplePairs()))
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, "stdout", FormatYAML, "Caddy")
	s.now = func() time.Time { return fixedTime }

	require.NoError(t, s.Write(context.Background(), samplePairs()))
	require.NoError(t, s.Write(context.Background(), samplePairs()))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "---\n"))
	assert.Equal(t, 2, strings.Count(out, "source: Caddy"))
	assert.Equal(t, "stdout", s.Target())
}

func TestWriterSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, "stdout", FormatJSON, "Caddy")

	require.NoError(t, s.Write(context.Background(), samplePairs()))

	snapshot, err := Decode(buf.Bytes(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, float64(60), snapshot.Entities["caddy/example.com"]["interval"])
}

func TestWriterSink_JSONStreamIsLineDelimited(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, "stdout", FormatJSON, "Caddy")
	s.now = func() time.Time { return fixedTime }

	require.NoError(t, s.Write(context.Background(), samplePairs()))
	require.NoError(t, s.Write(context.Background(), samplePairs()[:1]))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	first, err := Decode([]byte(lines[0]), FormatJSON)
	require.NoError(t, err)
	assert.Len(t, first.Entities, len(samplePairs()))

	second, err := Decode([]byte(lines[1]), FormatJSON)
	require.NoError(t, err)
	assert.Len(t, second.Entities, 1)
	assert.Equal(t, fixedTime, second.GeneratedAt)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriterSink_WriteError(t *testing.T) {
	s := NewWriterSink(failingWriter{}, "stdout", FormatJSON, "Caddy")

	err := s.Write(context.Background(), samplePairs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	assert.IsType(t, &WriterSink{}, New("", FormatYAML, "Caddy", &buf, nil))
	assert.IsType(t, &FileSink{}, New("/tmp/entities.yaml", FormatYAML, "Caddy", &buf, nil))
}
