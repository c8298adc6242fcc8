// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chimeralabs/accolade/internal/domain/types"
	"github.com/chimeralabs/accolade/pkg/metrics"
)

// HealthDependencies defines the interface for stage health operations.
type HealthDependencies interface {
	GetServiceHealth(ctx context.Context) []types.StageHealth
	ForceHealthCheck(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleMetrics handles GET /healthz requests, serving Prometheus metrics
// from the custom registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// HandleServices handles GET /health/services requests, reporting every
// pipeline stage's state. Returns 503 when any stage is unhealthy so load
// balancers can act on it.
func (h *HealthHandler) HandleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stagesReport := h.deps.GetServiceHealth(r.Context())
	status := http.StatusOK
	for _, st := range stagesReport {
		if !st.Healthy {
			status = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, status, stagesReport)
}

// HandleForceCheck handles POST /health/check requests, queueing an
// immediate health sweep.
func (h *HealthHandler) HandleForceCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.ForceHealthCheck(r.Context()); err != nil {
		switch {
		case isBackpressure(err):
			writeError(w, http.StatusTooManyRequests, "backpressure", err)
		case isUnavailable(err):
			writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "health check queued"})
}
