// Package main provides the entry point for the gallery server.
//
// The gallery server indexes an image library into SQLite and serves a
// slideshow backend: directory browsing, playlist building with several
// ordering strategies, per-client playlist sessions and the image bytes
// themselves.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT if present
//  2. Configuration Loading: Reads .env and environment variables, validates directories
//  3. Database Initialization: Opens the SQLite catalog in WAL mode
//  4. Component Initialization:
//     - Security boundary and runtime policy
//     - Memory Monitor: pauses metadata extraction under memory pressure
//     - Indexer: initial full reconcile in the background, optional periodic reconciles
//     - Session tiers: LRU memory cache over the durable SQLite table
//     - Metrics Collector: refreshes catalog gauges every minute
//  5. HTTP Server Setup: Configures routes, middleware, and starts server
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 4860, TLS when GALLERY_SSL_CERT and GALLERY_SSL_KEY are set):
//     - Library API under /api
//     - Library files by /api/file?path= or directly by path
//     - Health, readiness and version endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Environment Variables
//
//   - GALLERY_ROOT_DIR: Library root (default: working directory)
//   - DATABASE_DIR: Directory for the SQLite catalog (default: library root)
//   - PORT: Main HTTP server port (default: 4860)
//   - GALLERY_ALLOW_PARENT_DIR_ACCESS: Allow paths outside the root (default: false)
//   - INDEX_INTERVAL: Periodic full reconcile interval (default: 0, disabled)
//   - EXTRACT_WORKERS: Concurrent metadata extractions (default: 16)
//   - SESSION_CACHE_SIZE: In-memory session capacity (default: 1024)
//   - METRICS_ENABLED / METRICS_PORT: Metrics server (default: true / 9090)
//   - LOG_LEVEL, LOG_STATIC_FILES, LOG_HEALTH_CHECKS: Logging
//   - CORS_ALLOWED_ORIGINS: Comma-separated origins for CORS (default: *)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: Memory limit
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the server stops accepting requests, then stops the
// metrics collector, indexer and memory monitor, shuts down the metrics
// server and closes the database. All steps share a 30 second deadline.
package main
