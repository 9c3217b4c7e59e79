package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"image-gallery/internal/startup"
)

func TestGetVersion(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	req := httptest.NewRequest(http.MethodGet, "/version", http.NoBody)
	w := httptest.NewRecorder()

	h.GetVersion(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var resp VersionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Service != serviceName {
		t.Errorf("service = %q, want %q", resp.Service, serviceName)
	}
	if resp.BuildInfo != startup.GetBuildInfo() {
		t.Errorf("build info = %+v, want %+v", resp.BuildInfo, startup.GetBuildInfo())
	}
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()

	h.MetricsHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Error("empty metrics body")
	}
}
