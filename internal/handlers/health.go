package handlers

import (
	"net/http"
	"runtime"
	"time"

	"image-gallery/internal/database"
	"image-gallery/internal/indexer"
	"image-gallery/internal/logging"
	"image-gallery/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status            string `json:"status"`
	Ready             bool   `json:"ready"`
	Version           string `json:"version"`
	Uptime            string `json:"uptime"`
	Indexing          bool   `json:"indexing"`
	LastIndexed       string `json:"lastIndexed,omitempty"`
	InitialIndexError string `json:"initialIndexError,omitempty"`

	// Reconcile info
	LastResult     *indexer.Result `json:"lastResult,omitempty"`
	SyncedScopes   int             `json:"syncedScopes"`
	ExtractWorkers int             `json:"extractWorkers"`
	AllowParentDir bool            `json:"allowParentDir"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Catalog summary
	Catalog *database.CatalogStats `json:"catalog,omitempty"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	healthStatus := h.indexer.GetHealthStatus()

	response := HealthResponse{
		Ready:          healthStatus.Ready,
		Version:        startup.Version,
		Uptime:         healthStatus.Uptime,
		Indexing:       healthStatus.Indexing,
		LastResult:     healthStatus.LastResult,
		SyncedScopes:   healthStatus.SyncedScopes,
		ExtractWorkers: healthStatus.ExtractWorkers,
		AllowParentDir: h.policy.AllowParent(),
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
	}

	if healthStatus.Ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
	}

	if !healthStatus.LastIndexed.IsZero() {
		response.LastIndexed = healthStatus.LastIndexed.Format(time.RFC3339)
	}

	if healthStatus.InitialIndexError != "" {
		response.InitialIndexError = healthStatus.InitialIndexError
		response.Status = statusDegraded
	}

	stats, err := h.db.CatalogStats(r.Context())
	if err != nil {
		logging.Warn("Health check could not read catalog stats: %v", err)
	} else {
		response.Catalog = &stats
	}

	// Return 503 only if not ready at all
	statusCode := http.StatusOK
	if !healthStatus.Ready {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, statusCode, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only after the first full reconcile
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.indexer.IsReady() {
		writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
