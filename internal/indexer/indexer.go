package indexer

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"image-gallery/internal/database"
	"image-gallery/internal/logging"
	"image-gallery/internal/media"
	"image-gallery/internal/memory"
	"image-gallery/internal/metrics"
	"image-gallery/internal/security"
	"image-gallery/internal/workers"
)

// ErrAlreadyRunning is returned by FullReconcile when another full
// reconcile is in progress.
var ErrAlreadyRunning = errors.New("full reconcile already running")

// ExtractFunc reads catalog metadata for one file. It reports false when
// the file cannot be used.
type ExtractFunc func(fullPath, root string) (database.Image, bool)

// Indexer manages catalog synchronization for one library root.
type Indexer struct {
	db            *database.Database
	boundary      *security.Boundary
	indexInterval time.Duration
	extractLimit  int
	extract       ExtractFunc
	memory        *memory.Monitor
	endBatch      func(*database.Batch, error) error
	stopChan      chan struct{}
	stopOnce      sync.Once

	indexMu              sync.Mutex
	isIndexing           bool
	lastIndexTime        time.Time
	lastResult           *Result
	initialIndexComplete bool
	initialIndexError    error
	startTime            time.Time

	// scopes outside the root already synced this process lifetime
	syncedMu sync.RWMutex
	synced   map[string]struct{}

	inflight singleflight.Group
}

// Options configures an Indexer.
type Options struct {
	// IndexInterval between periodic full reconciles. Zero disables them.
	IndexInterval time.Duration
	// ExtractWorkers overrides the extraction concurrency cap.
	ExtractWorkers int
	// Extract replaces media.Extract, mainly for tests.
	Extract ExtractFunc
	// Memory pauses extraction under memory pressure. Optional.
	Memory *memory.Monitor
}

// New creates an Indexer for the boundary's root.
func New(db *database.Database, boundary *security.Boundary, opts Options) *Indexer {
	extract := opts.Extract
	if extract == nil {
		extract = media.Extract
	}

	limit := workers.ExtractLimit(opts.ExtractWorkers)
	metrics.IndexerExtractWorkers.Set(float64(limit))

	return &Indexer{
		db:            db,
		boundary:      boundary,
		indexInterval: opts.IndexInterval,
		extractLimit:  limit,
		extract:       extract,
		memory:        opts.Memory,
		endBatch:      db.EndBatch,
		stopChan:      make(chan struct{}),
		startTime:     time.Now(),
		synced:        make(map[string]struct{}),
	}
}

// Start runs the initial full reconcile in the background and, when an
// interval is configured, the periodic loop.
func (idx *Indexer) Start() {
	go func() {
		logging.Info("Starting initial full reconcile in background...")
		if _, err := idx.FullReconcile(context.Background()); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			logging.Error("Initial reconcile error: %v", err)
			idx.indexMu.Lock()
			idx.initialIndexError = err
			idx.indexMu.Unlock()
		}
	}()

	if idx.indexInterval > 0 {
		go idx.periodicIndex()
	} else {
		logging.Info("Periodic reconcile disabled (INDEX_INTERVAL=0)")
	}
}

// Stop ends the periodic loop. A reconcile already running completes.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() { close(idx.stopChan) })
}

func (idx *Indexer) periodicIndex() {
	ticker := time.NewTicker(idx.indexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic reconcile triggered")
			if _, err := idx.FullReconcile(context.Background()); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				logging.Error("periodic reconcile failed: %v", err)
			}
		case <-idx.stopChan:
			return
		}
	}
}

// FullReconcile reconciles the whole library root. It returns
// ErrAlreadyRunning if another full reconcile holds the guard.
func (idx *Indexer) FullReconcile(ctx context.Context) (Result, error) {
	if !idx.tryStartIndexing() {
		logging.Info("Full reconcile already in progress, skipping...")
		return Result{}, ErrAlreadyRunning
	}

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)

	startTime := time.Now()
	logging.Info("Starting full reconcile of %s", idx.boundary.Root())

	result, err := idx.Reconcile(ctx, security.RootScope, true)
	idx.finishIndexing(result, err)
	if err != nil {
		return result, err
	}

	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(time.Since(startTime).Seconds())

	logging.Info("Full reconcile complete: %d images seen, %d updated, %d removed in %v",
		result.Walked, result.Upserted, result.Deleted, time.Since(startTime))
	return result, nil
}

// TriggerFullReconcile starts a full reconcile detached from any request.
// It reports false when one is already running.
func (idx *Indexer) TriggerFullReconcile() bool {
	if idx.IsIndexing() {
		return false
	}
	go func() {
		if _, err := idx.FullReconcile(context.Background()); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			logging.Error("manually triggered reconcile failed: %v", err)
		}
	}()
	return true
}

// tryStartIndexing attempts to start indexing, returns false if already in progress.
func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

func (idx *Indexer) finishIndexing(result Result, err error) {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	idx.isIndexing = false
	if err != nil {
		return
	}
	idx.initialIndexComplete = true
	idx.initialIndexError = nil
	idx.lastIndexTime = time.Now()
	idx.lastResult = &result
}

// IsIndexing returns whether a full reconcile is currently in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// LastIndexTime returns the time of the last completed full reconcile.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastIndexTime
}

// IsReady reports whether the first full reconcile has completed.
func (idx *Indexer) IsReady() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool      `json:"ready"`
	Indexing          bool      `json:"indexing"`
	StartTime         time.Time `json:"startTime"`
	Uptime            string    `json:"uptime"`
	LastIndexed       time.Time `json:"lastIndexed,omitempty"`
	InitialIndexError string    `json:"initialIndexError,omitempty"`
	LastResult        *Result   `json:"lastResult,omitempty"`
	SyncedScopes      int       `json:"syncedScopes"`
	ExtractWorkers    int       `json:"extractWorkers"`
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	status := HealthStatus{
		Ready:          idx.initialIndexComplete,
		Indexing:       idx.isIndexing,
		StartTime:      idx.startTime,
		Uptime:         time.Since(idx.startTime).String(),
		LastIndexed:    idx.lastIndexTime,
		LastResult:     idx.lastResult,
		ExtractWorkers: idx.extractLimit,
	}
	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}
	idx.indexMu.Unlock()

	idx.syncedMu.RLock()
	status.SyncedScopes = len(idx.synced)
	idx.syncedMu.RUnlock()

	return status
}
