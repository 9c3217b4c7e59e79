package playlist

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"image-gallery/internal/database"
	"image-gallery/internal/logging"
	"image-gallery/internal/mediatypes"
	"image-gallery/internal/metrics"
	"image-gallery/internal/security"
	"image-gallery/internal/session"
)

// Request describes a playlist build.
type Request struct {
	Paths       []string `json:"paths"`
	Sort        string   `json:"sort"`
	Orientation string   `json:"orientation"`
	Direction   string   `json:"direction"`
	CurrentPath string   `json:"current_path,omitempty"`
}

// WithDefaults fills unset fields with shuffle, Both and forward.
func (r Request) WithDefaults() Request {
	if r.Sort == "" {
		r.Sort = SortShuffle
	}
	if r.Orientation == "" {
		r.Orientation = string(mediatypes.OrientationBoth)
	}
	if r.Direction == "" {
		r.Direction = DirectionForward
	}
	return r
}

// ScopeSyncer brings catalog scopes up to date before they are queried.
type ScopeSyncer interface {
	EnsureScopes(ctx context.Context, scopes []string) error
}

// Builder builds playlists and records them as client sessions.
type Builder struct {
	db       *database.Database
	syncer   ScopeSyncer
	sessions *session.Manager
	boundary *security.Boundary
	policy   *security.Policy
	shuffle  func(n int, swap func(i, j int))
}

// NewBuilder creates a Builder. syncer may be nil, in which case the
// catalog is queried as is.
func NewBuilder(db *database.Database, syncer ScopeSyncer, sessions *session.Manager,
	boundary *security.Boundary, policy *security.Policy) *Builder {
	return &Builder{
		db:       db,
		syncer:   syncer,
		sessions: sessions,
		boundary: boundary,
		policy:   policy,
		shuffle:  rand.Shuffle,
	}
}

// SetShuffle replaces the random permutation source.
func (b *Builder) SetShuffle(fn func(n int, swap func(i, j int))) {
	b.shuffle = fn
}

// Build resolves, queries, orders and stores the playlist for clientID.
// An empty playlist is a valid result.
func (b *Builder) Build(ctx context.Context, req Request, clientID string) ([]string, error) {
	start := time.Now()
	req = req.WithDefaults()
	allowParent := b.policy.AllowParent()

	scopes := b.resolveScopes(req.Paths, allowParent)

	if b.syncer != nil && len(scopes) > 0 {
		if err := b.syncer.EnsureScopes(ctx, scopes); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logging.Warn("Scope sync incomplete, using current catalog: %v", err)
		}
	}

	images, err := b.collect(ctx, scopes, mediatypes.ParseOrientation(req.Orientation), !allowParent)
	if err != nil {
		return nil, err
	}

	strategy := req.Sort
	if !KnownSort(strategy) {
		logging.Debug("Unknown sort %q, using %s", strategy, SortName)
		strategy = SortName
	}
	paths := b.order(images, strategy)
	if paths == nil {
		paths = []string{}
	}

	if req.Direction == DirectionReverse {
		reverse(paths)
	}
	if current := security.NormalizeRelPath(req.CurrentPath); current != "" {
		paths = rotate(paths, current)
	}

	if err := b.sessions.Save(ctx, clientID, paths); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	metrics.PlaylistBuildsTotal.WithLabelValues(strategy).Inc()
	metrics.PlaylistSize.Observe(float64(len(paths)))
	metrics.PlaylistBuildDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Built %s playlist of %d images for %s in %v", strategy, len(paths), clientID, time.Since(start))

	return paths, nil
}

// resolveScopes turns requested scopes into catalog keys. A scope the policy
// forbids, or an empty one, becomes the root scope. Duplicates are dropped,
// keeping the first occurrence.
func (b *Builder) resolveScopes(requested []string, allowParent bool) []string {
	seen := make(map[string]bool, len(requested))
	scopes := make([]string, 0, len(requested))

	for _, p := range requested {
		key := security.RootScope
		_, full, ok := b.boundary.ResolveScope(p, allowParent)
		if !ok {
			metrics.ScopeFallbacksTotal.Inc()
			logging.Debug("Scope %q not allowed, using root", p)
		} else if rel, err := b.boundary.RelPath(full); err == nil {
			key = rel
		}

		if seen[key] {
			continue
		}
		seen[key] = true
		scopes = append(scopes, key)
	}
	return scopes
}

// collect queries every scope and unions the rows, first occurrence wins.
func (b *Builder) collect(ctx context.Context, scopes []string, orientation mediatypes.Orientation, excludeParent bool) ([]database.Image, error) {
	seen := make(map[string]bool)
	var images []database.Image

	for _, scope := range scopes {
		rows, err := b.db.QueryImages(ctx, database.ImageQuery{
			Prefix:        scope,
			ExcludeParent: excludeParent,
			Orientation:   orientation,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to query scope %q: %w", scope, err)
		}
		for _, img := range rows {
			if seen[img.Path] {
				continue
			}
			seen[img.Path] = true
			images = append(images, img)
		}
	}
	return images, nil
}
