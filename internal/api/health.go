package api

import (
	"context"
	"net/http"
	"time"

	"github.com/snarg/voxmood/internal/mqttclient"
	"github.com/snarg/voxmood/internal/watch"
)

// Pinger checks backend connectivity.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PoolStats reports analysis pool counters.
type PoolStats interface {
	Stats() (started, completed, failed int64, queued int)
}

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
	Watcher       *watch.Status     `json:"watcher,omitempty"`
	Analysis      *AnalysisStatus   `json:"analysis,omitempty"`
}

type AnalysisStatus struct {
	Started   int64 `json:"started"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Queued    int   `json:"queued"`
}

// HealthHandler reports service health: database, MQTT, drop-directory
// watcher, and analysis pool state.
type HealthHandler struct {
	db        Pinger
	mqtt      *mqttclient.Client
	watcher   *watch.Watcher
	pool      PoolStats
	version   string
	startTime time.Time
}

func NewHealthHandler(db Pinger, mqtt *mqttclient.Client, watcher *watch.Watcher, pool PoolStats, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		db:        db,
		mqtt:      mqtt,
		watcher:   watcher,
		pool:      pool,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.HealthCheck(r.Context()); err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.mqtt != nil {
		if h.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	resp := HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	}

	if h.watcher != nil {
		ws := h.watcher.CurrentStatus()
		resp.Watcher = &ws
		checks["watcher"] = ws.Status
	}
	if h.pool != nil {
		started, completed, failed, queued := h.pool.Stats()
		resp.Analysis = &AnalysisStatus{
			Started:   started,
			Completed: completed,
			Failed:    failed,
			Queued:    queued,
		}
	}

	WriteJSON(w, httpStatus, resp)
}
