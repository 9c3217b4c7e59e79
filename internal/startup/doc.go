// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded from environment variables via [LoadConfig]. A
// .env file in the working directory is loaded first without overriding
// variables already set. The following variables are supported:
//
//   - GALLERY_ROOT_DIR: Image library root (default: working directory)
//   - DATABASE_DIR: Directory holding gallery_metadata.db (default: the root)
//   - PORT: HTTP server port (default: 4860)
//   - GALLERY_ALLOW_PARENT_DIR_ACCESS: Allow paths escaping the root (default: false)
//   - INDEX_INTERVAL: Periodic full reconcile, Go duration or seconds (default: 0, disabled)
//   - EXTRACT_WORKERS: Concurrent metadata extractions (default: 16)
//   - SESSION_CACHE_SIZE: Sessions kept in memory (default: 1024)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log image requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - GALLERY_SSL_CERT, GALLERY_SSL_KEY: Serve HTTPS when both are set
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: Go memory limit (see package memory)
//
// # Directory Setup
//
// The root must exist; it is never created. The database directory is
// created if missing and must be writable.
//
// # Startup Logging
//
// Startup is logged in sections (banner, system information, configuration,
// directory setup, database, indexer, HTTP routes, server started) so that
// container logs show at a glance how the process was configured.
package startup
