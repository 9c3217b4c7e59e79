package main

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"image-gallery/internal/browse"
	"image-gallery/internal/database"
	"image-gallery/internal/handlers"
	"image-gallery/internal/indexer"
	"image-gallery/internal/metrics"
	"image-gallery/internal/playlist"
	"image-gallery/internal/security"
	"image-gallery/internal/session"
	"image-gallery/internal/startup"
)

// newTestHandlers wires the real services over a temporary library.
func newTestHandlers(t *testing.T) (*handlers.Handlers, string) {
	t.Helper()

	base := t.TempDir()
	root := filepath.Join(base, "library")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}

	db, err := database.New(context.Background(), filepath.Join(base, database.FileName))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	boundary, err := security.NewBoundary(root)
	if err != nil {
		t.Fatal(err)
	}
	policy := security.NewPolicy(false)
	idx := indexer.New(db, boundary, indexer.Options{})
	t.Cleanup(idx.Stop)

	mem, err := session.NewMemoryStore(8)
	if err != nil {
		t.Fatal(err)
	}
	sessions := session.NewManager(session.NewChain(mem, session.NewDurableStore(db)), boundary, policy)

	return handlers.New(handlers.Deps{
		DB:       db,
		Indexer:  idx,
		Builder:  playlist.NewBuilder(db, idx, sessions, boundary, policy),
		Sessions: sessions,
		Browser:  browse.NewService(boundary, policy),
		Boundary: boundary,
		Policy:   policy,
	}), root
}

func TestDatabaseImplementsCollectorInterfaces(t *testing.T) {
	var _ metrics.StatsProvider = (*database.Database)(nil)
	var _ metrics.DBMetricsUpdater = (*database.Database)(nil)
}

func TestSetupRouter(t *testing.T) {
	h, _ := newTestHandlers(t)
	router := setupRouter(h)

	routes, err := startup.GetRoutes(router)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{
		"POST /api/scan":                  false,
		"GET /api/browse":                 false,
		"POST /api/playlist":              false,
		"POST /api/restore-playlist":      false,
		"GET /api/session-status":         false,
		"GET /api/session-playlist":       false,
		"GET /api/runtime-config":         false,
		"POST /api/runtime-config":        false,
		"POST /api/runtime-config/toggle": false,
		"GET /health":                     false,
		"GET /readyz":                     false,
		"GET /version":                    false,
	}
	for _, r := range routes {
		for _, m := range strings.Split(r.Method, ",") {
			key := strings.TrimSpace(m) + " " + r.Path
			if _, ok := want[key]; ok {
				want[key] = true
			}
		}
	}
	for route, found := range want {
		if !found {
			t.Errorf("route %s not registered", route)
		}
	}
}

func TestWrapHandlerCompressesJSON(t *testing.T) {
	h, root := newTestHandlers(t)
	for i := 0; i < 50; i++ {
		name := filepath.Join(root, "a_rather_long_image_name_"+strings.Repeat("x", i%5)+string(rune('a'+i%26))+".jpg")
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	handler := wrapHandler(setupRouter(h), &startup.Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/browse", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if enc := w.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", enc)
	}

	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `"currentPath":""`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestWrapHandlerServesImagesUncompressed(t *testing.T) {
	h, root := newTestHandlers(t)
	content := strings.Repeat("p", 4096)
	if err := os.WriteFile(filepath.Join(root, "pic.png"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	handler := wrapHandler(setupRouter(h), &startup.Config{})

	req := httptest.NewRequest(http.MethodGet, "/pic.png", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if enc := w.Header().Get("Content-Encoding"); enc != "" {
		t.Errorf("Content-Encoding = %q, want none", enc)
	}
	if w.Body.String() != content {
		t.Error("body mismatch")
	}
}

func TestWrapHandlerCORS(t *testing.T) {
	h, _ := newTestHandlers(t)
	handler := wrapHandler(setupRouter(h), &startup.Config{CORSOrigins: []string{"*"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/playlist", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("preflight Access-Control-Allow-Origin = %q, want *", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/runtime-config", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestNewMetricsServer(t *testing.T) {
	h, _ := newTestHandlers(t)
	srv := newMetricsServer("9999", h.MetricsHandler())

	if srv.Addr != ":9999" {
		t.Errorf("Addr = %q", srv.Addr)
	}
	if srv.ReadTimeout != metricsReadTimeout || srv.WriteTimeout != metricsWriteTimeout {
		t.Errorf("timeouts = %v/%v", srv.ReadTimeout, srv.WriteTimeout)
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "gallery_") {
		t.Error("gallery metrics missing from /metrics")
	}

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if w.Code != http.StatusNotFound {
		t.Errorf("/health on metrics server = %d, want 404", w.Code)
	}
}

func TestServerTimeouts(t *testing.T) {
	if writeTimeout != 0 {
		t.Error("write timeout must stay disabled for large image responses")
	}
	if readHeaderTimeout <= 0 || readTimeout < readHeaderTimeout {
		t.Errorf("read timeouts = %v/%v", readHeaderTimeout, readTimeout)
	}
	if shutdownTimeout < 10*time.Second {
		t.Errorf("shutdown timeout %v is too short for a graceful stop", shutdownTimeout)
	}
}
