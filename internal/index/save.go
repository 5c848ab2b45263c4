package index

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"github.com/zeebo/blake3"

	"dit/internal/entity"
)

// Save writes the entity to its backing file and reconciles the index
// around the write. First saves compute the file name from the current
// short id and the slug seed and stage the new file; subsequent saves
// rewrite the existing path in place.
func (ix *Index) Save(ctx context.Context, e *entity.Entity) error {
	e.UpdatedAt = time.Now()
	isNew := e.Path == ""

	ix.purge(e)

	if isNew {
		name := ix.shortIDFor(e.ID, e.ShortIDMin())
		if slug := entity.Slugify(e.SlugSeed(ix.get)); slug != "" {
			name += "-" + slug
		}
		e.Path = ix.cfg.DitDir + "/" + e.Kind.DirName() + "/" + name + ".yaml"
	}

	data, err := entity.Encode(e)
	if err != nil {
		ix.index(e)
		return fmt.Errorf("save %s: %w", e.ID, err)
	}
	if err := atomic.WriteFile(filepath.Join(ix.baseDir, filepath.FromSlash(e.Path)), bytes.NewReader(data)); err != nil {
		ix.index(e)
		return fmt.Errorf("save %s: %w", e.ID, err)
	}

	if isNew {
		if err := ix.repo.Add(ctx, e.Path); err != nil {
			ix.index(e)
			return err
		}
	}

	ix.index(e)
	if err := ix.refreshStatus(ctx); err != nil {
		return err
	}

	ix.logger.Info("saved entity", "kind", e.Kind, "id", e.ID, "path", e.Path, "new", isNew)
	return nil
}

// SaveIssue creates or updates an issue from a plain attribute map. A
// present "id" selects an existing issue (resolved like any reference);
// only updatable fields may change on an existing one.
func (ix *Index) SaveIssue(ctx context.Context, attrs map[string]string) (Rep, error) {
	issue, err := ix.target(attrs, entity.KindIssue)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		issue = ix.NewIssue()
	} else {
		for field := range attrs {
			if field != "id" && !entity.Updatable(entity.KindIssue, field) {
				return nil, fmt.Errorf("%w: issue %s", ErrFieldFrozen, field)
			}
		}
	}

	if title, ok := attrs["title"]; ok {
		issue.Title = title
	}

	if err := ix.Save(ctx, issue); err != nil {
		return nil, err
	}
	return ix.Representation(issue), nil
}

// SaveComment creates or updates a comment from a plain attribute map.
// New comments require a resolvable "reply_to"; "label" and "assignee"
// references are resolved to full ids before the save, and "kind" must
// name a known event kind when present.
func (ix *Index) SaveComment(ctx context.Context, attrs map[string]string) (Rep, error) {
	comment, err := ix.target(attrs, entity.KindComment)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		parentRef, ok := attrs["reply_to"]
		if !ok {
			return nil, fmt.Errorf("%w: reply_to missing", ErrParentMissing)
		}
		parent, ok := ix.Lookup(parentRef)
		if !ok || (parent.Kind != entity.KindIssue && parent.Kind != entity.KindComment) {
			return nil, fmt.Errorf("%w: %q", ErrParentMissing, parentRef)
		}
		comment = ix.NewComment(parent)
	} else {
		for field := range attrs {
			if field != "id" && !entity.Updatable(entity.KindComment, field) {
				return nil, fmt.Errorf("%w: comment %s", ErrFieldFrozen, field)
			}
		}
	}

	if text, ok := attrs["text"]; ok {
		comment.Text = text
	}
	if kind, ok := attrs["kind"]; ok && kind != "" {
		kind = entity.NormalizeEventKind(kind)
		switch kind {
		case entity.EventResolved, entity.EventReopened,
			entity.EventAssigned, entity.EventUnassigned,
			entity.EventAddedLabel, entity.EventRemovedLabel:
		default:
			return nil, fmt.Errorf("%w: %q", ErrBadEventKind, kind)
		}
		comment.EventKind = kind
	}
	if ref, ok := attrs["label"]; ok && ref != "" {
		label, found := ix.Lookup(ref)
		if !found || label.Kind != entity.KindLabel {
			return nil, fmt.Errorf("%w: label %q", ErrNotFound, ref)
		}
		comment.Label = label.ID
	}
	if ref, ok := attrs["assignee"]; ok && ref != "" {
		user, found := ix.Lookup(ref)
		if !found || user.Kind != entity.KindUser {
			return nil, fmt.Errorf("%w: user %q", ErrNotFound, ref)
		}
		comment.Assignee = user.ID
	}

	if err := ix.Save(ctx, comment); err != nil {
		return nil, err
	}
	return ix.Representation(comment), nil
}

// target resolves the optional "id" attribute to an existing entity of
// the wanted kind, or nil when the map describes a new entity.
func (ix *Index) target(attrs map[string]string, kind entity.Kind) (*entity.Entity, error) {
	ref, ok := attrs["id"]
	if !ok || ref == "" {
		return nil, nil
	}
	found, ok := ix.Lookup(ref)
	if !ok || found.Kind != kind {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, kind, ref)
	}
	return found, nil
}

// SaveAsset stores a content-addressed blob plus its metadata entity.
// The id is the hex BLAKE3 digest of the content, so attaching the same
// bytes twice is idempotent and returns the existing asset.
func (ix *Index) SaveAsset(ctx context.Context, data []byte, mimeType string) (*entity.Entity, error) {
	digest := blake3.Sum256(data)
	id := hex.EncodeToString(digest[:])

	if existing, ok := ix.get(id); ok {
		ix.logger.Debug("asset already stored", "id", id)
		return existing, nil
	}

	asset := entity.New(entity.KindAsset)
	asset.ID = id
	asset.Author = ix.account.ID
	asset.MimeType = mimeType
	asset.Ext = extForMime(mimeType)

	blobRel := ix.blobPath(asset)
	if err := atomic.WriteFile(filepath.Join(ix.baseDir, filepath.FromSlash(blobRel)), bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("store asset blob: %w", err)
	}
	if err := ix.repo.Add(ctx, blobRel); err != nil {
		return nil, err
	}
	if err := ix.Save(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// AssetBlobPath returns the repo-relative path of an asset's content
// blob, for callers that embed references to it in comment text.
func (ix *Index) AssetBlobPath(asset *entity.Entity) string {
	return ix.blobPath(asset)
}

// blobPath returns the repo-relative path of an asset's content blob.
// The blob sits next to the metadata files but never ends in .yaml, so
// the loader skips it.
func (ix *Index) blobPath(asset *entity.Entity) string {
	return ix.cfg.DitDir + "/" + entity.KindAsset.DirName() + "/" + asset.ID + "." + asset.Ext
}

// extForMime picks a file extension for a MIME type. "dat" when the
// platform MIME tables know nothing about the type.
func extForMime(mimeType string) string {
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return "dat"
	}
	ext := exts[0]
	for _, candidate := range exts {
		if candidate < ext {
			ext = candidate
		}
	}
	return ext[1:]
}
