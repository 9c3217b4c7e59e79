package session

import (
	"context"
	"fmt"
	"time"

	"image-gallery/internal/filesystem"
	"image-gallery/internal/security"
)

// RestoreError reports a restore that left nothing to play. It wraps
// security.ErrInvalidInput.
type RestoreError struct {
	Reason        string
	OriginalCount int
	ValidCount    int
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("%s (original %d, valid %d)", e.Reason, e.OriginalCount, e.ValidCount)
}

func (e *RestoreError) Unwrap() error {
	return security.ErrInvalidInput
}

// RestoreResult describes a successful restore.
type RestoreResult struct {
	Status        string   `json:"status"`
	OriginalCount int      `json:"original_count"`
	ValidCount    int      `json:"valid_count"`
	CurrentIndex  int      `json:"current_index"`
	Playlist      []string `json:"playlist"`
}

// Status summarizes a client's session.
type Status struct {
	HasSession   bool       `json:"has_session"`
	Source       *string    `json:"source"`
	PlaylistSize int        `json:"playlist_size"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// Manager implements the session operations exposed over HTTP.
type Manager struct {
	store    *Chain
	boundary *security.Boundary
	policy   *security.Policy
	now      func() time.Time
}

// NewManager creates a Manager. Restored paths are checked against
// boundary under the current policy.
func NewManager(store *Chain, boundary *security.Boundary, policy *security.Policy) *Manager {
	return &Manager{
		store:    store,
		boundary: boundary,
		policy:   policy,
		now:      time.Now,
	}
}

// Save records playlist as the client's session.
func (m *Manager) Save(ctx context.Context, clientID string, playlist []string) error {
	return m.store.Put(ctx, clientID, Record{Playlist: playlist, CreatedAt: m.now()})
}

// Get returns the client's session and the tier it came from.
func (m *Manager) Get(ctx context.Context, clientID string) (Record, Source, error) {
	return m.store.Get(ctx, clientID)
}

// Restore re-validates candidates and stores the survivors as the client's
// session. A candidate survives if it resolves inside the boundary (or the
// policy allows escaping it) and is currently a regular file. currentIndex
// is clamped into the surviving list.
func (m *Manager) Restore(ctx context.Context, clientID string, candidates []string, currentIndex int) (RestoreResult, error) {
	if len(candidates) == 0 {
		return RestoreResult{}, &RestoreError{Reason: "playlist is empty"}
	}

	allowParent := m.policy.AllowParent()
	valid := make([]string, 0, len(candidates))
	for _, c := range candidates {
		rel, full, ok := m.boundary.ResolveScope(c, allowParent)
		if !ok || security.IsRootScope(rel) {
			continue
		}
		info, err := filesystem.StatWithRetry(full, filesystem.DefaultRetryConfig())
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		valid = append(valid, rel)
	}

	if len(valid) == 0 {
		return RestoreResult{}, &RestoreError{
			Reason:        "no valid paths in playlist",
			OriginalCount: len(candidates),
		}
	}

	if currentIndex < 0 {
		currentIndex = 0
	}
	if currentIndex >= len(valid) {
		currentIndex = len(valid) - 1
	}

	if err := m.Save(ctx, clientID, valid); err != nil {
		return RestoreResult{}, fmt.Errorf("failed to store restored playlist: %w", err)
	}

	return RestoreResult{
		Status:        "restored",
		OriginalCount: len(candidates),
		ValidCount:    len(valid),
		CurrentIndex:  currentIndex,
		Playlist:      valid,
	}, nil
}

// Status summarizes the client's session.
func (m *Manager) Status(ctx context.Context, clientID string) (Status, error) {
	rec, source, err := m.store.Get(ctx, clientID)
	if err != nil {
		return Status{}, err
	}
	if source == SourceNone {
		return Status{}, nil
	}

	src := string(source)
	created := rec.CreatedAt
	return Status{
		HasSession:   true,
		Source:       &src,
		PlaylistSize: len(rec.Playlist),
		CreatedAt:    &created,
	}, nil
}
