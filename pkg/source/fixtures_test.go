package source

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/rekby/fixenv"
)

const sampleCaddyConfig = `{
  "apps": {
    "http": {
      "servers": {
        "srv0": {
          "listen": [":443"],
          "routes": [
            {"match": [{"host": ["example.com", "www.example.com"]}], "handle": [{"handler": "reverse_proxy"}]},
            {"match": [{"host": ["*.wildcard.com"]}]}
          ]
        }
      }
    }
  }
}`

// fakeCaddy is a stand-in for the Caddy admin API config endpoint.
type fakeCaddy struct {
	server *httptest.Server
	hits   atomic.Int32

	mu     sync.Mutex
	status int
	body   string
}

func (f *fakeCaddy) URL() string {
	return f.server.URL + "/config/"
}

func (f *fakeCaddy) Respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.body = body
}

func (f *fakeCaddy) Hits() int {
	return int(f.hits.Load())
}

func (f *fakeCaddy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)

	if r.URL.Path != "/config/" {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	status, body := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// FakeCaddy provides a test-scoped fake admin API serving sampleCaddyConfig.
func FakeCaddy(env fixenv.Env) *fakeCaddy {
	return fixenv.CacheResult(env, func() (*fixenv.GenericResult[*fakeCaddy], error) {
		fake := &fakeCaddy{status: http.StatusOK, body: sampleCaddyConfig}
		fake.server = httptest.NewServer(fake)

		return fixenv.NewGenericResultWithCleanup(fake, func() {
			fake.server.Close()
		}), nil
	})
}
