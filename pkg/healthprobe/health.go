package healthprobe

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthChecker answers the liveness and readiness probes for the
// ledger service.
type HealthChecker struct {
	startedAt time.Time
	ready     atomic.Bool
}

// New creates a checker that reports not-ready until SetReady(true).
func New() *HealthChecker {
	return &HealthChecker{startedAt: time.Now()}
}

// SetReady flips the readiness probe. The run loop sets it once every
// component has started and clears it first thing on shutdown.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// ProbeResponse is the body served by both probe endpoints.
type ProbeResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
}

// Health serves the liveness probe. It answers 200 for as long as the
// process is up.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h.write(w, http.StatusOK, ProbeResponse{
			Status: "healthy",
			Uptime: time.Since(h.startedAt).String(),
		})
	}
}

// Ready serves the readiness probe: 200 once the service accepts
// traffic, 503 before that and during shutdown.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !h.ready.Load() {
			h.write(w, http.StatusServiceUnavailable, ProbeResponse{
				Status:  "not_ready",
				Message: "service is starting",
			})
			return
		}

		h.write(w, http.StatusOK, ProbeResponse{
			Status: "ready",
			Uptime: time.Since(h.startedAt).String(),
		})
	}
}

func (h *HealthChecker) write(w http.ResponseWriter, status int, resp ProbeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
