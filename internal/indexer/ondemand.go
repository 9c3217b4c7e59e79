package indexer

import (
	"context"
	"errors"
	"fmt"

	"image-gallery/internal/logging"
	"image-gallery/internal/security"
)

// EnsureScopes syncs the scopes a playlist request is about to query. A
// scope outside the root is reconciled on its first request; after that it
// is treated like any other scope, which is reconciled whenever it has no
// catalog rows. Scopes must
// already be normalized and policy-checked. Errors from individual scopes
// are joined; the caller may still query whatever the catalog holds.
func (idx *Indexer) EnsureScopes(ctx context.Context, scopes []string) error {
	var errs []error

	for _, scope := range scopes {
		full := security.Resolve(idx.boundary.Root(), scope)
		key, err := idx.boundary.RelPath(full)
		if err != nil {
			errs = append(errs, fmt.Errorf("scope %q: %w", scope, err))
			continue
		}

		if !idx.boundary.Contains(full) && !idx.isSynced(key) {
			logging.Info("Syncing external scope %s", key)
			if _, err := idx.reconcileShared(ctx, key); err != nil {
				errs = append(errs, fmt.Errorf("scope %q: %w", key, err))
				continue
			}
			idx.markSynced(key)
			continue
		}

		exists, err := idx.db.ProbePrefix(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("probe %q: %w", key, err))
			continue
		}
		if exists {
			continue
		}

		logging.Debug("Scope %s has no catalog rows, syncing", key)
		if _, err := idx.reconcileShared(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("scope %q: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

// reconcileShared runs an on-demand reconcile of scope, sharing the run with
// any concurrent caller asking for the same scope. The shared run is
// detached from the caller's cancellation so that one client disconnecting
// does not fail the others; a cancelled caller stops waiting and returns.
func (idx *Indexer) reconcileShared(ctx context.Context, scope string) (Result, error) {
	ch := idx.inflight.DoChan(scope, func() (any, error) {
		return idx.Reconcile(context.WithoutCancel(ctx), scope, false)
	})

	select {
	case res := <-ch:
		if res.Shared {
			logging.Debug("Joined in-flight reconcile of %s", scope)
		}
		result, _ := res.Val.(Result)
		return result, res.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (idx *Indexer) isSynced(scope string) bool {
	idx.syncedMu.RLock()
	defer idx.syncedMu.RUnlock()
	_, ok := idx.synced[scope]
	return ok
}

func (idx *Indexer) markSynced(scope string) {
	idx.syncedMu.Lock()
	defer idx.syncedMu.Unlock()
	idx.synced[scope] = struct{}{}
}
