package handlers

import (
	"net/http"
	"time"
)

// HealthHandler serves unauthenticated liveness/readiness probes.
type HealthHandler struct {
	startTime time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startTime: time.Now()}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"service":    "corevault",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime_sec": int64(uptime.Seconds()),
	})
}

// Readiness handles GET /health/ready. It's a liveness alias for now:
// CoreVault's dependencies (catalog, backend) are checked by the process
// supervisor at startup, not re-probed per request.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
