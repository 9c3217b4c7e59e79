package handlers

import (
	"net/http"

	"image-gallery/internal/startup"
)

// serviceName identifies this server in version responses.
const serviceName = "image-gallery"

// VersionResponse is the build information with the service name.
type VersionResponse struct {
	Service string `json:"service"`
	startup.BuildInfo
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, VersionResponse{
		Service:   serviceName,
		BuildInfo: startup.GetBuildInfo(),
	})
}
