package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_db_transaction_duration_seconds",
			Help:    "Duration of catalog batch transactions in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_db_rows_affected",
			Help:    "Rows affected per write statement",
			Buckets: []float64{1, 10, 100, 1000, 10000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_indexer_runs_total",
			Help: "Total number of reconcile runs by mode",
		},
		[]string{"mode"}, // "full", "on_demand"
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_indexer_last_run_timestamp",
			Help: "Timestamp of the last completed full reconcile",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_indexer_last_run_duration_seconds",
			Help: "Duration of the last completed full reconcile in seconds",
		},
	)

	IndexerFilesWalked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_indexer_files_walked_total",
			Help: "Total number of image files seen on the filesystem",
		},
	)

	IndexerFilesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_indexer_files_extracted_total",
			Help: "Total number of metadata extractions by status",
		},
		[]string{"status"}, // "success", "failed"
	)

	IndexerRowsUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_indexer_rows_upserted_total",
			Help: "Total number of catalog rows inserted or replaced",
		},
	)

	IndexerRowsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_indexer_rows_evicted_total",
			Help: "Total number of catalog rows evicted",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_indexer_errors_total",
			Help: "Total number of failed reconciles",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_indexer_running",
			Help: "Whether a full reconcile is currently running (1 = running, 0 = idle)",
		},
	)

	IndexerExtractWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_indexer_extract_workers",
			Help: "Concurrency cap for metadata extraction",
		},
	)
)

// Catalog metrics
var (
	CatalogImagesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_catalog_images",
			Help: "Number of catalog entries by orientation",
		},
		[]string{"orientation"},
	)

	CatalogOutsideRoot = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_catalog_outside_root_images",
			Help: "Catalog entries synced from scopes outside the library root",
		},
	)

	SessionsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_sessions",
			Help: "Number of durable session records",
		},
	)
)

// Playlist and session metrics
var (
	PlaylistBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_playlist_builds_total",
			Help: "Total number of playlists built by sort strategy",
		},
		[]string{"sort"},
	)

	PlaylistSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_playlist_size",
			Help:    "Number of entries in built playlists",
			Buckets: []float64{0, 10, 100, 1000, 10000, 100000},
		},
	)

	PlaylistBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_playlist_build_duration_seconds",
			Help:    "Playlist build duration in seconds, including on-demand reconciles",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	ScopeFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_scope_fallbacks_total",
			Help: "Requested scopes replaced by the root scope because the policy disallowed them",
		},
	)

	SessionReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_session_reads_total",
			Help: "Session reads by satisfying tier",
		},
		[]string{"source"}, // "memory", "database", "none"
	)

	SessionDurableWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_session_durable_write_errors_total",
			Help: "Durable session writes that failed (memory tier still updated)",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_filesystem_operation_errors_total",
			Help: "Filesystem operation errors",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_filesystem_retry_events_total",
			Help: "Stale NFS handle retry events by outcome (stale, attempt, succeeded, exhausted)",
		},
		[]string{"volume", "operation", "event"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the Go memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_memory_extraction_paused",
			Help: "1 while metadata extraction is paused for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_memory_pauses_total",
			Help: "Times extraction was paused because memory reached the critical mark",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
