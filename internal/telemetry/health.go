package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HealthServer serves the latest StatsSnapshot over HTTP for liveness and
// readiness probes.
type HealthServer struct {
	source    func() StatsSnapshot
	startedAt time.Time
}

// NewHealthServer creates a HealthServer that reads snapshots from source.
func NewHealthServer(source func() StatsSnapshot) *HealthServer {
	return &HealthServer{source: source, startedAt: time.Now()}
}

// LivenessHandler answers /health with a bare "alive" response.
func (h *HealthServer) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "alive",
		"uptime": time.Since(h.startedAt).Seconds(),
	})
}

// ReadinessHandler answers /readiness with the current stats snapshot and a
// degraded status once the drop rate crosses 5%.
func (h *HealthServer) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.source()

	status := "healthy"
	if snap.DropRate > 0.05 {
		status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"stats":  snap,
	})
}

// Start launches the HTTP server on port in a background goroutine.
func (h *HealthServer) Start(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.LivenessHandler)
	mux.HandleFunc("/readiness", h.ReadinessHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("starting rawstream health server", "port", port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server failed", "error", err)
		}
	}()

	return nil
}
