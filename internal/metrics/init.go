package metrics

import "image-gallery/internal/filesystem"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	volumes := []string{"library", "database", "unknown"}
	fsOps := []string{"stat", "open", "readdir"}

	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			for _, event := range []filesystem.RetryEvent{
				filesystem.RetryStale, filesystem.RetryAttempt,
				filesystem.RetrySucceeded, filesystem.RetryExhausted,
			} {
				FilesystemRetries.WithLabelValues(vol, op, string(event))
			}
		}
	}

	for _, mode := range []string{"full", "on_demand"} {
		IndexerRunsTotal.WithLabelValues(mode)
	}
	for _, status := range []string{"success", "failed"} {
		IndexerFilesExtracted.WithLabelValues(status)
	}

	for _, sort := range []string{"shuffle", "date", "name", "subfolder_random", "subfolder_date", "subfolder_prefix"} {
		PlaylistBuildsTotal.WithLabelValues(sort)
	}
	for _, source := range []string{"memory", "database", "none"} {
		SessionReadsTotal.WithLabelValues(source)
	}
	for _, o := range []string{"landscape", "portrait"} {
		CatalogImagesTotal.WithLabelValues(o)
	}

	for _, op := range []string{"upsert_image", "delete_image", "query_images", "list_images_under",
		"probe_prefix", "put_session", "get_session", "count_images", "catalog_stats", "begin_transaction"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, t := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(t)
	}
}
