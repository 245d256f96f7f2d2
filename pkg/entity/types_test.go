package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDraft(t *testing.T) {
	draft := NewDraft("example.com", Options{
		UseHTTPS:          true,
		MonitorNamePrefix: "Caddy - ",
		GroupRef:          "caddy-group",
	})

	assert.Equal(t, Draft{
		ID:       "caddy/example.com",
		Host:     "example.com",
		Name:     "Caddy - example.com",
		URL:      "https://example.com",
		GroupRef: "caddy-group",
	}, draft)
}

func TestNewDraft_NoPrefixNoGroup(t *testing.T) {
	draft := NewDraft("example.com", Options{})

	assert.Equal(t, "example.com", draft.Name)
	assert.Equal(t, "http://example.com", draft.URL)
	assert.Empty(t, draft.GroupRef)
}

func TestNewDrafts_ProtocolSelection(t *testing.T) {
	hosts := []string{"a.example.com", "b.example.com", "c.example.com"}

	for _, useHTTPS := range []bool{true, false} {
		scheme := "http://"
		if useHTTPS {
			scheme = "https://"
		}

		drafts := NewDrafts(hosts, Options{UseHTTPS: useHTTPS})
		for i, draft := range drafts {
			assert.Equal(t, scheme+hosts[i], draft.URL)
		}
	}
}

func TestNewDrafts_PreservesOrderAndIsIdempotent(t *testing.T) {
	hosts := []string{"example.com", "wildcard.com", "www.example.com"}
	opts := Options{UseHTTPS: true, GroupRef: "g"}

	first := NewDrafts(hosts, opts)
	second := NewDrafts(hosts, opts)

	assert.Equal(t, first, second)
	ids := make([]string, 0, len(first))
	for _, d := range first {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"caddy/example.com", "caddy/wildcard.com", "caddy/www.example.com"}, ids)
}

func TestNewDrafts_Empty(t *testing.T) {
	assert.Empty(t, NewDrafts(nil, Options{}))
}
