package entity

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caddy-uptime-source/pkg/templating"
)

// failingRenderer holds a template for every field and fails rendering for
// one host. Other hosts render to the host name.
type failingRenderer struct {
	failHost string
}

func (r *failingRenderer) HasTemplate(string) bool { return true }

func (r *failingRenderer) Render(_ string, context map[string]interface{}) (string, error) {
	if context["host"] == r.failHost {
		return "", errors.New("render failed")
	}
	return context["host"].(string), nil
}

func TestBuilder_Build(t *testing.T) {
	engine, err := templating.New(templating.EngineTypeGonja, nil)
	require.NoError(t, err)

	builder := NewBuilder(
		Options{UseHTTPS: true, MonitorNamePrefix: "Caddy - ", GroupRef: "group"},
		NewFactory(engine, MonitorDefaults{}),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	pairs, failures := builder.Build([]string{"example.com", "www.example.com"})

	assert.Empty(t, failures)
	require.Len(t, pairs, 2)
	assert.Equal(t, "caddy/example.com", pairs[0].ID)
	assert.Equal(t, "Caddy - example.com", pairs[0].Entity[FieldName])
	assert.Equal(t, "https://example.com", pairs[0].Entity[FieldURL])
	assert.Equal(t, "group", pairs[0].Entity[FieldParentName])
	assert.Equal(t, "caddy/www.example.com", pairs[1].ID)
}

func TestBuilder_Build_IsolatesFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	builder := NewBuilder(Options{}, NewFactory(&failingRenderer{failHost: "b.example.com"}, MonitorDefaults{}), logger)

	hosts := []string{"a.example.com", "b.example.com", "c.example.com", "d.example.com"}
	pairs, failures := builder.Build(hosts)

	require.Len(t, pairs, len(hosts)-1)
	assert.Equal(t, "caddy/a.example.com", pairs[0].ID)
	assert.Equal(t, "caddy/c.example.com", pairs[1].ID)
	assert.Equal(t, "caddy/d.example.com", pairs[2].ID)

	require.Len(t, failures, 1)
	assert.Equal(t, "b.example.com", failures[0].Host)

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "failed to create entity for host")
	assert.Contains(t, logs.String(), "host=b.example.com")
}

func TestBuilder_Build_IsolatesGonjaFailure(t *testing.T) {
	defaults := MonitorDefaults{
		Extra: map[string]interface{}{
			"description": `{% if host == "bad.example.com" %}{{ fail("blocked host") }}{% endif %}{{ host }}`,
		},
	}
	engine, err := templating.New(templating.EngineTypeGonja, Templates("", defaults))
	require.NoError(t, err)

	factory := NewFactory(engine, defaults)
	builder := NewBuilder(Options{}, factory, slog.New(slog.NewTextHandler(io.Discard, nil)))

	pairs, failures := builder.Build([]string{"bad.example.com", "good.example.com"})

	require.Len(t, pairs, 1)
	assert.Equal(t, "caddy/good.example.com", pairs[0].ID)
	assert.Equal(t, "good.example.com", pairs[0].Entity["description"])
	require.Len(t, failures, 1)
	assert.Equal(t, "description", failures[0].Field)
	assert.Contains(t, failures[0].Error(), "blocked host")
}

func TestBuilder_Build_Empty(t *testing.T) {
	builder := NewBuilder(Options{}, NewFactory(&failingRenderer{}, MonitorDefaults{}), nil)

	pairs, failures := builder.Build(nil)

	assert.NotNil(t, pairs)
	assert.Empty(t, pairs)
	assert.Empty(t, failures)
}
