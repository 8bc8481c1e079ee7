package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

const dependencyTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and dependency checks.
type HealthHandler struct {
	checks map[string]Check
	logger *slog.Logger
}

// NewHealthHandler builds a handler probing checks by name. Unconfigured
// dependencies are simply absent from checks.
func NewHealthHandler(checks map[string]Check, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

// DependencyStatus is the outcome of one probe.
type DependencyStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// HandleLive handles GET /health.
func (h *HealthHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, "OK", map[string]any{
		"status": "ok",
		"time":   requestcontext.Now(r.Context()).UTC(),
	})
}

// HandleDependencies handles GET /debug/health-db. Any failing dependency
// turns the response into a 503.
func (h *HealthHandler) HandleDependencies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	statuses := make([]DependencyStatus, 0, len(names))
	for _, name := range names {
		st := h.probe(ctx, name, h.checks[name])
		if st.Status != "ok" {
			healthy = false
			h.logger.ErrorContext(ctx, "dependency unreachable",
				"request_id", requestcontext.RequestID(ctx),
				"dependency", name,
				"error", st.Error,
			)
		}
		statuses = append(statuses, st)
	}

	if !healthy {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.Envelope{
			Success: false,
			Message: "One or more dependencies are unreachable",
			Error:   "service_unavailable",
			Data:    statuses,
		})
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "All dependencies reachable", statuses)
}

func (h *HealthHandler) probe(ctx context.Context, name string, check Check) DependencyStatus {
	ctx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	st := DependencyStatus{Name: name, Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		st.Status = "down"
		st.Error = err.Error()
	}
	return st
}
