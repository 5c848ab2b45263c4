package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"dit/internal/entity"
	"dit/internal/gitrepo"
)

// refreshStatus reclassifies every storage path as dirty (worktree
// changes to a committed file) or added (staged, not in HEAD).
func (ix *Index) refreshStatus(ctx context.Context) error {
	dirty, added, err := ix.repo.Status(ctx, ix.cfg.DitDir+"/")
	if err != nil {
		return err
	}
	ix.dirty = dirty
	ix.added = added
	return nil
}

// Status returns the dirty storage paths and the union of added and
// dirty storage paths, each in lexicographic order.
func (ix *Index) Status() (dirty, addedOrDirty []string) {
	return gitrepo.SortedPaths(ix.dirty), ix.pendingPaths()
}

// IsDirty reports whether the entity's backing file carries
// uncommitted changes of either class.
func (ix *Index) IsDirty(e *entity.Entity) bool {
	if e.Path == "" {
		return true
	}
	if _, ok := ix.dirty[e.Path]; ok {
		return true
	}
	_, ok := ix.added[e.Path]
	return ok
}

// Commit records the entity's backing file in a commit of its own. The
// index entry is purged before the git operation and rebuilt from disk
// afterwards, whether or not the commit succeeded.
func (ix *Index) Commit(ctx context.Context, ref string) error {
	e, ok := ix.Lookup(ref)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	if e.Path == "" {
		return fmt.Errorf("%w: %s", ErrNoFile, e.ID)
	}

	relPath := e.Path
	ix.purge(e)
	commitErr := ix.repo.Commit(ctx, ix.cfg.CommitMessage, relPath)
	if err := ix.reloadPath(relPath); err != nil {
		return err
	}
	if err := ix.refreshStatus(ctx); err != nil {
		return err
	}
	if commitErr != nil {
		return commitErr
	}
	ix.logger.Info("committed entity", "id", e.ID, "path", relPath)
	return nil
}

// CommitAll records every dirty and added storage path in a single
// commit.
func (ix *Index) CommitAll(ctx context.Context) error {
	paths := ix.pendingPaths()
	if len(paths) == 0 {
		return ErrNothingTo
	}

	for _, relPath := range paths {
		ix.purgePath(relPath)
	}
	commitErr := ix.repo.Commit(ctx, ix.cfg.CommitAllMessage, paths...)
	for _, relPath := range paths {
		if err := ix.reloadPath(relPath); err != nil {
			return err
		}
	}
	if err := ix.refreshStatus(ctx); err != nil {
		return err
	}
	if commitErr != nil {
		return commitErr
	}
	ix.logger.Info("committed all pending changes", "paths", len(paths))
	return nil
}

// Revert discards the entity's uncommitted state. A path that exists in
// HEAD is checked out from there; a staged-but-never-committed path is
// unstaged and its file deleted, which for assets removes the content
// blob too.
func (ix *Index) Revert(ctx context.Context, ref string) error {
	e, ok := ix.Lookup(ref)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	if e.Path == "" {
		return fmt.Errorf("%w: %s", ErrNoFile, e.ID)
	}

	relPath := e.Path
	blobRel := ""
	if e.Kind == entity.KindAsset {
		blobRel = ix.blobPath(e)
	}
	ix.purge(e)

	var revertErr error
	if _, staged := ix.added[relPath]; staged && !ix.repo.InHead(ctx, relPath) {
		revertErr = ix.discardAdded(ctx, relPath)
		if revertErr == nil && blobRel != "" {
			revertErr = ix.discardAdded(ctx, blobRel)
		}
	} else {
		revertErr = ix.repo.CheckoutPaths(ctx, relPath)
	}

	if err := ix.reloadPath(relPath); err != nil {
		return err
	}
	if err := ix.refreshStatus(ctx); err != nil {
		return err
	}
	if revertErr != nil {
		return revertErr
	}
	ix.logger.Info("reverted entity", "id", e.ID, "path", relPath)
	return nil
}

// RevertAll discards every uncommitted storage change, splitting the
// pending paths into checkouts and staged-only removals the same way
// Revert does for a single entity.
func (ix *Index) RevertAll(ctx context.Context) error {
	paths := ix.pendingPaths()
	if len(paths) == 0 {
		return nil
	}

	var checkout, discard []string
	seen := make(map[string]struct{})
	for _, relPath := range paths {
		if _, staged := ix.added[relPath]; staged && !ix.repo.InHead(ctx, relPath) {
			// An asset's blob travels with its metadata file and is
			// also a pending path of its own, so dedupe.
			if e, ok := ix.paths[relPath]; ok && e.Kind == entity.KindAsset {
				if blobRel := ix.blobPath(e); blobRel != "" {
					if _, dup := seen[blobRel]; !dup {
						seen[blobRel] = struct{}{}
						discard = append(discard, blobRel)
					}
				}
			}
			if _, dup := seen[relPath]; !dup {
				seen[relPath] = struct{}{}
				discard = append(discard, relPath)
			}
		} else {
			checkout = append(checkout, relPath)
		}
	}

	for _, relPath := range paths {
		ix.purgePath(relPath)
	}

	var revertErr error
	if len(checkout) > 0 {
		revertErr = ix.repo.CheckoutPaths(ctx, checkout...)
	}
	for _, relPath := range discard {
		if err := ix.discardAdded(ctx, relPath); err != nil && revertErr == nil {
			revertErr = err
		}
	}

	for _, relPath := range paths {
		if err := ix.reloadPath(relPath); err != nil {
			return err
		}
	}
	if err := ix.refreshStatus(ctx); err != nil {
		return err
	}
	if revertErr != nil {
		return revertErr
	}
	ix.logger.Info("reverted all pending changes", "paths", len(paths))
	return nil
}

// discardAdded unstages a never-committed path and removes the file.
func (ix *Index) discardAdded(ctx context.Context, relPath string) error {
	if err := ix.repo.Unstage(ctx, relPath); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(ix.baseDir, filepath.FromSlash(relPath))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard %s: %w", relPath, err)
	}
	return nil
}

// pendingPaths returns the union of dirty and added paths, sorted.
func (ix *Index) pendingPaths() []string {
	set := make(map[string]struct{}, len(ix.dirty)+len(ix.added))
	for relPath := range ix.dirty {
		set[relPath] = struct{}{}
	}
	for relPath := range ix.added {
		set[relPath] = struct{}{}
	}
	paths := make([]string, 0, len(set))
	for relPath := range set {
		paths = append(paths, relPath)
	}
	sort.Strings(paths)
	return paths
}
