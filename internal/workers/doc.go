/*
Package workers sizes the gallery's bounded worker pools.

Metadata extraction during a reconcile runs with at most [ExtractLimit]
goroutines in flight. The default of 16 bounds open file descriptors on
trees with tens of thousands of images; EXTRACT_WORKERS overrides it:

	limit := workers.ExtractLimit(cfg.ExtractWorkers)
	g.SetLimit(limit)
*/
package workers
