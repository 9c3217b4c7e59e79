package handlers

import (
	"errors"
	"net/http"

	"image-gallery/internal/logging"
	"image-gallery/internal/playlist"
	"image-gallery/internal/security"
	"image-gallery/internal/session"
)

// TriggerScan starts a full reconcile in the background
func (h *Handlers) TriggerScan(w http.ResponseWriter, _ *http.Request) {
	if !h.indexer.TriggerFullReconcile() {
		writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "already_running"})
		return
	}
	logging.Info("Full reconcile triggered via API")
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "scanning_started"})
}

// Browse lists one folder of the library
func (h *Handlers) Browse(w http.ResponseWriter, r *http.Request) {
	listing, err := h.browser.List(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		if errors.Is(err, security.ErrNotFound) {
			writeJSONError(w, "Folder not found", http.StatusNotFound)
			return
		}
		logging.Error("Error browsing %q: %v", r.URL.Query().Get("path"), err)
		writeJSONError(w, "Failed to list folder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, listing)
}

// BuildPlaylist builds an ordered playlist and stores it as the caller's
// session
func (h *Handlers) BuildPlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlist.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	paths, err := h.builder.Build(r.Context(), req, clientID(r))
	if err != nil {
		logging.Error("Error building playlist: %v", err)
		writeJSONError(w, "Failed to build playlist", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusOK, paths)
}

// restoreRequest is the body of a restore call.
type restoreRequest struct {
	Playlist     []string `json:"playlist"`
	CurrentIndex int      `json:"current_index"`
}

// RestorePlaylist re-validates a client-held playlist and stores the
// surviving paths as the caller's session
func (h *Handlers) RestorePlaylist(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.sessions.Restore(r.Context(), clientID(r), req.Playlist, req.CurrentIndex)
	if err != nil {
		var restoreErr *session.RestoreError
		if errors.As(err, &restoreErr) {
			writeJSONStatus(w, http.StatusBadRequest, map[string]interface{}{
				"message":        restoreErr.Reason,
				"original_count": restoreErr.OriginalCount,
				"valid_count":    restoreErr.ValidCount,
			})
			return
		}
		logging.Error("Error restoring playlist: %v", err)
		writeJSONError(w, "Failed to restore playlist", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusOK, result)
}

// SessionStatus reports whether the caller has a stored session
func (h *Handlers) SessionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.sessions.Status(r.Context(), clientID(r))
	if err != nil {
		logging.Error("Error reading session status: %v", err)
		writeJSONError(w, "Failed to read session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, status)
}

// sessionPlaylistResponse is the stored session returned to its owner.
type sessionPlaylistResponse struct {
	Playlist  []string `json:"playlist"`
	Source    string   `json:"source"`
	CreatedAt float64  `json:"created_at"`
}

// SessionPlaylist returns the caller's stored playlist
func (h *Handlers) SessionPlaylist(w http.ResponseWriter, r *http.Request) {
	rec, source, err := h.sessions.Get(r.Context(), clientID(r))
	if err != nil {
		logging.Error("Error reading session playlist: %v", err)
		writeJSONError(w, "Failed to read session", http.StatusInternalServerError)
		return
	}
	if source == session.SourceNone {
		writeJSONError(w, "No session", http.StatusNotFound)
		return
	}

	playlist := rec.Playlist
	if playlist == nil {
		playlist = []string{}
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, sessionPlaylistResponse{
		Playlist:  playlist,
		Source:    string(source),
		CreatedAt: float64(rec.CreatedAt.UnixNano()) / 1e9,
	})
}

// runtimeConfig is the mutable server configuration.
type runtimeConfig struct {
	AllowParentDirAccess *bool `json:"allow_parent_dir_access"`
}

// GetRuntimeConfig returns the current security policy
func (h *Handlers) GetRuntimeConfig(w http.ResponseWriter, _ *http.Request) {
	allow := h.policy.AllowParent()
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, runtimeConfig{AllowParentDirAccess: &allow})
}

// SetRuntimeConfig replaces the security policy
func (h *Handlers) SetRuntimeConfig(w http.ResponseWriter, r *http.Request) {
	var req runtimeConfig
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.AllowParentDirAccess == nil {
		writeJSONError(w, "allow_parent_dir_access is required", http.StatusBadRequest)
		return
	}

	allow := *req.AllowParentDirAccess
	if prev := h.policy.Set(allow); prev != allow {
		logging.Info("Parent directory access changed to %v by %s", allow, clientID(r))
	}
	writeJSONStatus(w, http.StatusOK, runtimeConfig{AllowParentDirAccess: &allow})
}

// ToggleRuntimeConfig flips the security policy
func (h *Handlers) ToggleRuntimeConfig(w http.ResponseWriter, r *http.Request) {
	allow := h.policy.Toggle()
	logging.Info("Parent directory access toggled to %v by %s", allow, clientID(r))
	writeJSONStatus(w, http.StatusOK, runtimeConfig{AllowParentDirAccess: &allow})
}
