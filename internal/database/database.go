package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"image-gallery/internal/logging"
	"image-gallery/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// FileName is the catalog database file name inside the database directory.
const FileName = "gallery_metadata.db"

// Database manages the catalog and session tables.
type Database struct {
	db     *sqlx.DB
	dbPath string
	mu     sync.RWMutex
}

// Batch is an open write transaction created by BeginBatch.
type Batch struct {
	tx    *sqlx.Tx
	start time.Time
}

// New opens (creating if needed) the database at dbPath and applies the
// schema. The parent directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sqlx.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		path TEXT PRIMARY KEY,
		mtime REAL NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		is_landscape INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_images_landscape ON images(is_landscape);

	CREATE TABLE IF NOT EXISTS playlists (
		client_ip TEXT PRIMARY KEY,
		playlist TEXT NOT NULL,
		created_at REAL NOT NULL
	);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// BeginBatch starts a write transaction. The caller must finish it with
// EndBatch.
func (d *Database) BeginBatch() (*Batch, error) {
	start := time.Now()
	var err error
	defer func() {
		if err != nil {
			recordQuery("begin_transaction", start, err)
		}
	}()

	// transaction lifetime is managed by EndBatch, not a timeout
	tx, err := d.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Batch{tx: tx, start: start}, nil
}

// EndBatch commits the batch, or rolls it back when err is non-nil. The
// returned error includes err and any rollback failure.
func (d *Database) EndBatch(b *Batch, err error) error {
	duration := time.Since(b.start).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := b.tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	if commitErr := b.tx.Commit(); commitErr != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		return fmt.Errorf("failed to commit transaction: %w", commitErr)
	}
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return nil
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// diagnoseDatabasePermissions checks that the database directory and any
// existing database files are writable.
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", p, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("%s is read-only (mode %v), writes will fail", p, info.Mode())
			if chmodErr := os.Chmod(p, 0o600); chmodErr != nil {
				logging.Error("Failed to fix permissions on %s: %v", p, chmodErr)
			} else {
				logging.Info("Fixed permissions on %s", p)
			}
		}
	}

	return nil
}
