package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"image-gallery/internal/database"
	"image-gallery/internal/filesystem"
	"image-gallery/internal/logging"
	"image-gallery/internal/media"
	"image-gallery/internal/mediatypes"
	"image-gallery/internal/metrics"
	"image-gallery/internal/security"
)

// mtimeTolerance absorbs float rounding between filesystem and catalog
// timestamps.
const mtimeTolerance = 0.001

var errMemoryMonitorStopped = errors.New("memory monitor stopped")

// Result summarizes one reconcile.
type Result struct {
	Scope     string        `json:"scope"`
	Walked    int           `json:"walked"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Upserted  int           `json:"upserted"`
	Deleted   int           `json:"deleted"`
	Duration  time.Duration `json:"duration"`
}

// fileEntry is an image seen during the walk.
type fileEntry struct {
	fullPath string
	mtime    float64
}

// walkResult is the filesystem side of a reconcile, keyed by catalog path.
type walkResult struct {
	files map[string]fileEntry
	// directories that could not be read; rows beneath them are kept
	unreadable []string
}

// Reconcile makes the catalog rows under scope match the filesystem. scope
// is a root-relative path and is not policy-checked here; callers resolve
// it through the security boundary first. full selects the root sweep,
// which loads the whole catalog.
func (idx *Indexer) Reconcile(ctx context.Context, scope string, full bool) (Result, error) {
	start := time.Now()
	mode := "on_demand"
	if full {
		mode = "full"
	}
	metrics.IndexerRunsTotal.WithLabelValues(mode).Inc()

	root := idx.boundary.Root()
	scopeFull := security.Resolve(root, security.NormalizeRelPath(scope))
	prefix, err := idx.boundary.RelPath(scopeFull)
	if err != nil {
		metrics.IndexerErrors.Inc()
		return Result{}, fmt.Errorf("invalid scope %q: %w", scope, err)
	}
	if full {
		prefix = ""
	}

	result := Result{Scope: prefix}
	if prefix == "" {
		result.Scope = security.RootScope
	}

	walked, err := idx.walk(ctx, scopeFull)
	if err != nil {
		metrics.IndexerErrors.Inc()
		return result, fmt.Errorf("failed to walk %s: %w", scopeFull, err)
	}
	result.Walked = len(walked.files)
	metrics.IndexerFilesWalked.Add(float64(result.Walked))

	rows, err := idx.db.ListImagesUnder(ctx, prefix)
	if err != nil {
		metrics.IndexerErrors.Inc()
		return result, fmt.Errorf("failed to load catalog rows: %w", err)
	}
	known := make(map[string]float64, len(rows))
	for _, r := range rows {
		known[r.Path] = r.Mtime
	}

	var todo []fileEntry
	for rel, f := range walked.files {
		dbMtime, ok := known[rel]
		if !ok || math.Abs(dbMtime-f.mtime) > mtimeTolerance {
			todo = append(todo, f)
		}
	}

	images, failed, err := idx.extractAll(ctx, todo)
	if err != nil {
		metrics.IndexerErrors.Inc()
		return result, err
	}
	result.Processed = len(images)
	result.Failed = failed

	upserted, err := idx.upsertAll(images)
	if err != nil {
		metrics.IndexerErrors.Inc()
		return result, err
	}
	result.Upserted = upserted

	var stale []string
	for _, r := range rows {
		if _, ok := walked.files[r.Path]; ok {
			continue
		}
		if !idx.evictable(r.Path, scopeFull, walked.unreadable) {
			continue
		}
		stale = append(stale, r.Path)
	}

	deleted, err := idx.evictAll(stale)
	if err != nil {
		metrics.IndexerErrors.Inc()
		return result, err
	}
	result.Deleted = deleted
	result.Duration = time.Since(start)

	if result.Upserted > 0 || result.Deleted > 0 {
		logging.Info("Reconciled %s: %d seen, %d updated, %d removed, %d unreadable in %v",
			result.Scope, result.Walked, result.Upserted, result.Deleted, result.Failed, result.Duration)
	} else {
		logging.Debug("Reconciled %s: %d seen, no changes in %v", result.Scope, result.Walked, result.Duration)
	}
	return result, nil
}

// walk collects supported images under scopeFull. A missing scope yields an
// empty set so that its rows are evicted; any other error on the scope
// itself aborts.
func (idx *Indexer) walk(ctx context.Context, scopeFull string) (walkResult, error) {
	res := walkResult{files: make(map[string]fileEntry)}

	err := filepath.WalkDir(scopeFull, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == scopeFull {
				if errors.Is(err, fs.ErrNotExist) {
					return fs.SkipAll
				}
				return err
			}
			logging.Warn("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() {
				res.unreadable = append(res.unreadable, path)
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !mediatypes.IsImage(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err == nil && info.Mode()&fs.ModeSymlink != 0 {
			info, err = filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
		}
		if err != nil {
			logging.Debug("Error getting info for %s: %v", path, err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := idx.boundary.RelPath(path)
		if err != nil {
			return nil //nolint:nilerr // skip this file, keep walking
		}
		res.files[rel] = fileEntry{fullPath: path, mtime: media.Mtime(info.ModTime())}
		return nil
	})
	if err != nil {
		return walkResult{}, err
	}
	return res, nil
}

// extractAll runs the extractor over todo with bounded concurrency.
// Per-file failures are counted and dropped.
func (idx *Indexer) extractAll(ctx context.Context, todo []fileEntry) ([]database.Image, int, error) {
	if len(todo) == 0 {
		return nil, 0, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.extractLimit)

	root := idx.boundary.Root()
	var mu sync.Mutex
	images := make([]database.Image, 0, len(todo))
	failed := 0

	for _, f := range todo {
		f := f
		g.Go(func() error {
			if !idx.memory.WaitIfPaused() {
				return errMemoryMonitorStopped
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			img, ok := idx.extract(f.fullPath, root)

			mu.Lock()
			defer mu.Unlock()
			if !ok {
				failed++
				metrics.IndexerFilesExtracted.WithLabelValues("failed").Inc()
				return nil
			}
			images = append(images, img)
			metrics.IndexerFilesExtracted.WithLabelValues("success").Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, failed, fmt.Errorf("extraction cancelled: %w", err)
	}
	return images, failed, nil
}

// upsertAll writes images in one transaction. Row failures are logged and
// skipped; a failed commit fails the reconcile.
func (idx *Indexer) upsertAll(images []database.Image) (int, error) {
	if len(images) == 0 {
		return 0, nil
	}

	batch, err := idx.db.BeginBatch()
	if err != nil {
		return 0, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}

	n := 0
	for _, img := range images {
		if err := idx.db.UpsertImage(batch, img); err != nil {
			logging.Warn("Error upserting image %s: %v", img.Path, err)
			continue
		}
		n++
	}

	if err := idx.endBatch(batch, nil); err != nil {
		return 0, fmt.Errorf("failed to commit upserts: %w", err)
	}

	metrics.IndexerRowsUpserted.Add(float64(n))
	return n, nil
}

// evictAll deletes paths in one transaction.
func (idx *Indexer) evictAll(paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	batch, err := idx.db.BeginBatch()
	if err != nil {
		return 0, fmt.Errorf("failed to begin eviction transaction: %w", err)
	}

	var deleted int64
	for _, p := range paths {
		n, err := idx.db.DeleteImage(batch, p)
		if err != nil {
			logging.Warn("Error evicting image %s: %v", p, err)
			continue
		}
		deleted += n
	}

	if err := idx.endBatch(batch, nil); err != nil {
		return 0, fmt.Errorf("failed to commit evictions: %w", err)
	}

	metrics.IndexerRowsEvicted.Add(float64(deleted))
	return int(deleted), nil
}

// evictable reports whether a row missing from the walk may be deleted. The
// row's absolute path must lie inside the walked tree, which keeps a root
// sweep away from rows synced from outside the root, and must not sit
// beneath a directory the walk could not read.
func (idx *Indexer) evictable(rowPath, scopeFull string, unreadable []string) bool {
	full := security.Resolve(idx.boundary.Root(), rowPath)
	if !security.IsUnderRoot(scopeFull, full) {
		return false
	}
	for _, dir := range unreadable {
		if security.IsUnderRoot(dir, full) {
			return false
		}
	}
	return true
}
