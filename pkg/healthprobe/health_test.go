package healthprobe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, handler http.HandlerFunc, path string) (int, ProbeResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, path, nil))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ProbeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestHealthAlwaysOK(t *testing.T) {
	hc := New()

	for _, ready := range []bool{false, true} {
		hc.SetReady(ready)

		code, resp := probe(t, hc.Health(), "/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.NotEmpty(t, resp.Uptime)
	}
}

func TestReadyFollowsState(t *testing.T) {
	hc := New()

	code, resp := probe(t, hc.Ready(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", resp.Status)
	assert.NotEmpty(t, resp.Message)

	hc.SetReady(true)
	code, resp = probe(t, hc.Ready(), "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", resp.Status)
	assert.NotEmpty(t, resp.Uptime)

	hc.SetReady(false)
	code, _ = probe(t, hc.Ready(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestConcurrentReadyAccess(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			hc.SetReady(i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		}
	}()

	wg.Wait()
}
