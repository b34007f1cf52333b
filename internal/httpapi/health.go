package httpapi

import (
	"net/http"
	"time"

	"github.com/bemserver/acquisition-engine/internal/metrics"
	"github.com/bemserver/acquisition-engine/internal/store"
)

// HealthResponse reports liveness of the store connection and a summary
// of the running acquisition engine.
type HealthResponse struct {
	Status               string            `json:"status"`
	UptimeSeconds         int64             `json:"uptime_seconds"`
	Checks               map[string]string `json:"checks"`
	ConnectedSubscribers int               `json:"connected_subscribers"`
	RunningSubscribers   int               `json:"running_subscribers"`
}

// HealthHandler answers GET /health.
type HealthHandler struct {
	st        *store.Store
	stats     metrics.AcquisitionStats
	startTime time.Time
}

func NewHealthHandler(st *store.Store, stats metrics.AcquisitionStats, startTime time.Time) *HealthHandler {
	return &HealthHandler{st: st, stats: stats, startTime: startTime}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"store": "ok"}
	status := http.StatusOK

	if err := h.st.HealthCheck(r.Context()); err != nil {
		checks["store"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	}
	if status != http.StatusOK {
		resp.Status = "degraded"
	}
	if h.stats != nil {
		resp.ConnectedSubscribers = h.stats.ConnectedSubscriberCount()
		resp.RunningSubscribers = h.stats.RunningSubscriberCount()
	}

	WriteJSON(w, status, resp)
}
