// Package metrics provides Prometheus instrumentation for the image gallery
// server. All metrics are prefixed with "gallery_".
//
// # Metric Categories
//
//   - HTTP: request counts, durations, in-flight gauge
//   - Database: query counts and latency, transaction durations, rows affected
//   - Indexer: reconcile runs by mode, files walked/extracted, rows upserted/evicted
//   - Catalog: entry counts by orientation, durable session count
//   - Playlist/Session: builds by sort strategy, sizes, tier hit counts
//   - Filesystem: per-volume operation latency and NFS retry behavior
//
// Metrics are registered with the default registry via promauto. Mount
// promhttp.Handler() to expose them:
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// The [Collector] periodically refreshes gauges derived from the database:
//
//	collector := metrics.NewCollector(db, db, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// Example PromQL, playlist builds per strategy:
//
//	sum(rate(gallery_playlist_builds_total[5m])) by (sort)
package metrics
