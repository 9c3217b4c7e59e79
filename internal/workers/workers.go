package workers

// DefaultExtractLimit caps concurrent metadata extractions during a
// reconcile. Each extraction holds one open file descriptor.
const DefaultExtractLimit = 16

// ExtractLimit returns the extraction concurrency cap. A positive override
// (EXTRACT_WORKERS) wins; anything else yields DefaultExtractLimit.
func ExtractLimit(override int) int {
	if override > 0 {
		return override
	}
	return DefaultExtractLimit
}
