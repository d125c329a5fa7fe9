package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/cputracker/agent/internal/models"
	"github.com/cputracker/agent/pkg/history"
	"github.com/cputracker/agent/pkg/metrics"
	"github.com/cputracker/agent/pkg/tracker"
)

// HealthStatus is the payload served on /health.
type HealthStatus struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	LastRun    tracker.Status         `json:"last_run"`
	Metrics    map[string]interface{} `json:"metrics"`
	RecentRuns []models.RunResult     `json:"recent_runs,omitempty"`
}

// HealthChecker serves a local health endpoint for the agent.
type HealthChecker struct {
	port    int
	tracker *tracker.Tracker
	metrics *metrics.Collector
	history *history.Store
	logger  *log.Logger
}

// NewHealthChecker creates a health checker serving on the given port. A
// port of 0 disables the endpoint. history may be nil.
func NewHealthChecker(port int, t *tracker.Tracker, m *metrics.Collector, h *history.Store) *HealthChecker {
	return &HealthChecker{
		port:    port,
		tracker: t,
		metrics: m,
		history: h,
		logger:  log.New(os.Stdout, "[HEALTH] ", log.LstdFlags),
	}
}

// Start serves the health endpoint until ctx is cancelled. It returns
// immediately when the endpoint is disabled.
func (h *HealthChecker) Start(ctx context.Context) {
	if h.port == 0 {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)

	server := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", h.port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	h.logger.Printf("health endpoint listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		h.logger.Printf("health server error: %v", err)
	}
}

// handleHealth reports the agent's current health.
func (h *HealthChecker) handleHealth(w http.ResponseWriter, r *http.Request) {
	last := h.tracker.LastRun()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		LastRun:   last,
		Metrics:   h.metrics.Snapshot(),
	}
	if last.Ran && last.Error != "" {
		status.Status = "degraded"
	}

	if h.history != nil {
		if recent, err := h.history.Recent(10); err == nil {
			status.RecentRuns = recent
		} else {
			h.logger.Printf("failed to load run history: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.logger.Printf("failed to encode health status: %v", err)
	}
}
