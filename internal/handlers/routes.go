package handlers

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes attaches every endpoint to r. The direct-path file route
// is a catch-all and is registered last.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Health and version
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scan", h.TriggerScan).Methods("POST")
	api.HandleFunc("/browse", h.Browse).Methods("GET")
	api.HandleFunc("/playlist", h.BuildPlaylist).Methods("POST")
	api.HandleFunc("/restore-playlist", h.RestorePlaylist).Methods("POST")
	api.HandleFunc("/session-status", h.SessionStatus).Methods("GET")
	api.HandleFunc("/session-playlist", h.SessionPlaylist).Methods("GET")
	api.HandleFunc("/runtime-config", h.GetRuntimeConfig).Methods("GET")
	api.HandleFunc("/runtime-config", h.SetRuntimeConfig).Methods("POST")
	api.HandleFunc("/runtime-config/toggle", h.ToggleRuntimeConfig).Methods("POST")
	api.HandleFunc("/file", h.ServeFile).Methods("GET", "HEAD")

	r.HandleFunc("/{path:.+}", h.ServeFileByPath).Methods("GET", "HEAD")
}
