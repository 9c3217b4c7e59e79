package database

import (
	"context"
	"strings"
	"time"

	"image-gallery/internal/mediatypes"
	"image-gallery/internal/metrics"
)

// prefixClause returns a WHERE fragment matching prefix itself and every
// path nested under it. Paths starting with prefix+"/" sort in the range
// [prefix+"/", prefix+"0") under BINARY collation, so the primary key index
// serves the lookup and no LIKE wildcard escaping is needed.
func prefixClause(prefix string) (string, []any) {
	if prefix == "" || prefix == "." {
		return "1=1", nil
	}
	return "(path = ? OR (path >= ? AND path < ?))", []any{prefix, prefix + "/", prefix + "0"}
}

// UpsertImage inserts or replaces a catalog entry within a batch.
func (d *Database) UpsertImage(b *Batch, img Image) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_image", start, err) }()

	img.IsLandscape = mediatypes.IsLandscape(img.Width, img.Height)

	// use background context; the batch controls the lifecycle
	_, err = b.tx.NamedExecContext(context.Background(), `
		INSERT OR REPLACE INTO images (path, mtime, width, height, is_landscape)
		VALUES (:path, :mtime, :width, :height, :is_landscape)
	`, img)
	return err
}

// DeleteImage removes a catalog entry within a batch.
func (d *Database) DeleteImage(b *Batch, path string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_image", start, err) }()

	result, err := b.tx.ExecContext(context.Background(), "DELETE FROM images WHERE path = ?", path)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err == nil && rows > 0 {
		metrics.DBRowsAffected.WithLabelValues("delete_image").Observe(float64(rows))
	}
	return rows, err
}

// QueryImages returns the catalog rows selected by q, in no particular
// order.
func (d *Database) QueryImages(ctx context.Context, q ImageQuery) ([]Image, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("query_images", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := prefixClause(q.Prefix)
	conds := []string{where}
	if q.ExcludeParent {
		conds = append(conds, "path NOT LIKE '../%'")
	}
	switch q.Orientation {
	case mediatypes.OrientationLandscape:
		conds = append(conds, "is_landscape = 1")
	case mediatypes.OrientationPortrait:
		conds = append(conds, "is_landscape = 0")
	}

	query := "SELECT path, mtime, width, height, is_landscape FROM images WHERE " + strings.Join(conds, " AND ")

	var images []Image
	err = d.db.SelectContext(ctx, &images, query, args...)
	if err != nil {
		return nil, err
	}
	return images, nil
}

// ListImagesUnder returns every row under prefix. An empty prefix or "."
// returns the whole catalog.
func (d *Database) ListImagesUnder(ctx context.Context, prefix string) ([]Image, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_images_under", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	where, args := prefixClause(prefix)

	var images []Image
	err = d.db.SelectContext(ctx, &images,
		"SELECT path, mtime, width, height, is_landscape FROM images WHERE "+where, args...)
	if err != nil {
		return nil, err
	}
	return images, nil
}

// ProbePrefix reports whether at least one row lies under prefix.
func (d *Database) ProbePrefix(ctx context.Context, prefix string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("probe_prefix", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := prefixClause(prefix)

	var exists bool
	err = d.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM images WHERE "+where+")", args...)
	return exists, err
}

// CountImages returns the number of catalog entries.
func (d *Database) CountImages(ctx context.Context) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_images", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err = d.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM images")
	return n, err
}

// CatalogStats returns catalog and session counts.
func (d *Database) CatalogStats(ctx context.Context) (CatalogStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("catalog_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats CatalogStats
	err = d.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(is_landscape = 1), 0) AS landscape,
			COALESCE(SUM(is_landscape = 0), 0) AS portrait,
			COALESCE(SUM(path LIKE '../%'), 0) AS outside_root
		FROM images
	`)
	if err != nil {
		return CatalogStats{}, err
	}

	err = d.db.GetContext(ctx, &stats.Sessions, "SELECT COUNT(*) FROM playlists")
	if err != nil {
		return CatalogStats{}, err
	}
	return stats, nil
}

// GetStats adapts CatalogStats for the metrics collector. Errors yield
// zero counts.
func (d *Database) GetStats() metrics.Stats {
	stats, err := d.CatalogStats(context.Background())
	if err != nil {
		return metrics.Stats{}
	}
	return metrics.Stats{
		LandscapeImages: stats.LandscapeImages,
		PortraitImages:  stats.PortraitImages,
		OutsideRoot:     stats.OutsideRoot,
		Sessions:        stats.Sessions,
	}
}
