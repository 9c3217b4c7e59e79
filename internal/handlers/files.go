package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"image-gallery/internal/database"
	"image-gallery/internal/filesystem"
	"image-gallery/internal/logging"
	"image-gallery/internal/mediatypes"
	"image-gallery/internal/security"
)

// ServeFile serves a file named by the path query parameter
func (h *Handlers) ServeFile(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, r.URL.Query().Get("path"))
}

// ServeFileByPath serves a file named by the request path itself, so
// that /folder/image.jpg and a front end shipped in the root work without
// the query form
func (h *Handlers) ServeFileByPath(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]
	if rel == "" {
		rel = strings.TrimPrefix(r.URL.Path, "/")
	}
	h.serveFile(w, r, rel)
}

// serveFile resolves rel under the current policy and streams it with a
// Content-Type chosen by extension. Hidden paths and the catalog database
// are never served.
func (h *Handlers) serveFile(w http.ResponseWriter, r *http.Request, rel string) {
	fullPath, err := h.boundary.ResolveFile(rel, h.policy.AllowParent())
	if err != nil {
		if errors.Is(err, security.ErrForbidden) {
			writeJSONError(w, "Access outside ROOT_DIR is disabled", http.StatusForbidden)
			return
		}
		writeJSONError(w, "File not found", http.StatusNotFound)
		return
	}

	if !servable(rel, fullPath) {
		writeJSONError(w, "File not found", http.StatusNotFound)
		return
	}

	info, err := filesystem.StatWithRetry(fullPath, filesystem.DefaultRetryConfig())
	if err != nil || !info.Mode().IsRegular() {
		writeJSONError(w, "File not found", http.StatusNotFound)
		return
	}

	file, err := filesystem.OpenWithRetry(fullPath, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSONError(w, "File not found", http.StatusNotFound)
			return
		}
		logging.Error("Error opening file %s: %v", fullPath, err)
		writeJSONError(w, "Failed to open file", http.StatusInternalServerError)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logging.Warn("Error closing file %s: %v", fullPath, closeErr)
		}
	}()

	w.Header().Set("Content-Type", mediatypes.GetMimeType(fullPath))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

// servable rejects dot-prefixed path components, which covers .env and VCS
// metadata, and the catalog database with its WAL and journal siblings
// wherever DATABASE_DIR points.
func servable(rel, fullPath string) bool {
	if strings.HasPrefix(filepath.Base(fullPath), database.FileName) {
		return false
	}
	for _, part := range strings.Split(security.NormalizeRelPath(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return false
		}
	}
	return true
}
