package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"image-gallery/internal/browse"
	"image-gallery/internal/database"
	"image-gallery/internal/filesystem"
	"image-gallery/internal/handlers"
	"image-gallery/internal/indexer"
	"image-gallery/internal/logging"
	"image-gallery/internal/memory"
	"image-gallery/internal/metrics"
	"image-gallery/internal/middleware"
	"image-gallery/internal/playlist"
	"image-gallery/internal/security"
	"image-gallery/internal/session"
	"image-gallery/internal/startup"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	idleTimeout       = 120 * time.Second
	// image responses can be large on slow links
	writeTimeout = 0

	metricsReadTimeout  = 10 * time.Second
	metricsWriteTimeout = 10 * time.Second

	metricsCollectInterval = time.Minute
	shutdownTimeout        = 30 * time.Second
)

// shutdownDone is closed once handleShutdown has released every component.
var shutdownDone = make(chan struct{})

func main() {
	startTime := time.Now()

	// Configure memory limit before anything allocates heavily
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"library":  config.RootDir,
		"database": config.DatabaseDir,
	}))
	metrics.InitializeMetrics()

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	boundary, err := security.NewBoundary(config.RootDir)
	if err != nil {
		startup.LogFatal("Invalid root directory: %v", err)
	}
	policy := security.NewPolicy(config.AllowParentDir)

	// Memory monitor gates extraction workers
	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()

	// Initialize indexer
	startup.LogIndexerInit(config.IndexInterval, config.ExtractWorkers)
	idx := indexer.New(db, boundary, indexer.Options{
		IndexInterval:  config.IndexInterval,
		ExtractWorkers: config.ExtractWorkers,
		Memory:         memMonitor,
	})
	idx.Start()
	startup.LogIndexerStarted()

	// Session tiers
	memStore, err := session.NewMemoryStore(config.SessionCacheSize)
	if err != nil {
		startup.LogFatal("Failed to create session cache: %v", err)
	}
	sessions := session.NewManager(
		session.NewChain(memStore, session.NewDurableStore(db)),
		boundary, policy,
	)

	h := handlers.New(handlers.Deps{
		DB:       db,
		Indexer:  idx,
		Builder:  playlist.NewBuilder(db, idx, sessions, boundary, policy),
		Sessions: sessions,
		Browser:  browse.NewService(boundary, policy),
		Boundary: boundary,
		Policy:   policy,
	})

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           wrapHandler(router, config),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	// Metrics collector and server
	var collector *metrics.Collector
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		collector = metrics.NewCollector(db, db, metricsCollectInterval)
		collector.Start()

		metricsSrv = newMetricsServer(config.MetricsPort, h.MetricsHandler())
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, collector, idx, memMonitor, db)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		TLSEnabled:      config.TLSEnabled(),
		StartupDuration: time.Since(startTime),
	})

	if config.TLSEnabled() {
		err = srv.ListenAndServeTLS(config.SSLCert, config.SSLKey)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	// ListenAndServe returns as soon as Shutdown starts; wait for cleanup
	<-shutdownDone
}

// setupRouter registers the routes. Request metrics run inside the router
// so they can label by route template.
func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.RegisterRoutes(r)
	return r
}

// wrapHandler applies the outer middleware: compression, then access
// logging, then CORS so that preflights are logged too.
func wrapHandler(router http.Handler, config *startup.Config) http.Handler {
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = config.CORSOrigins
	handler := middleware.CORS(corsConfig)(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	return middleware.Compression(middleware.DefaultCompressionConfig())(handler)
}

func newMetricsServer(port string, metricsHandler http.Handler) *http.Server {
	m := http.NewServeMux()
	m.Handle("/metrics", metricsHandler)
	return &http.Server{
		Addr:              ":" + port,
		Handler:           m,
		ReadHeaderTimeout: metricsReadTimeout,
		ReadTimeout:       metricsReadTimeout,
		WriteTimeout:      metricsWriteTimeout,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector,
	idx *indexer.Indexer, memMonitor *memory.Monitor, db *database.Database,
) {
	defer close(shutdownDone)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	memMonitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
