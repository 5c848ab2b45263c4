// Package index is the tracker core: it loads every entity file under
// the storage tree into memory, maintains the identifier trie, the
// inverted text index, and the reply-tree adjacency over them, keeps
// that state reconciled with the git repository, and exposes the
// save/commit/revert operations everything else is built on.
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dit/internal/config"
	"dit/internal/entity"
	"dit/internal/gitrepo"
	"dit/internal/search"
	"dit/internal/trie"
)

var (
	ErrNoRepository  = errors.New("no git repository found")
	ErrNotFound      = errors.New("entity not found")
	ErrParentMissing = errors.New("reply_to does not reference an existing issue or comment")
	ErrBadEventKind  = errors.New("unknown comment event kind")
	ErrFieldFrozen   = errors.New("field is not updatable")
	ErrNothingTo     = errors.New("nothing to commit")
	ErrNoFile        = errors.New("entity has never been saved")
)

// Index is the in-memory tracker state. It is built once at startup
// and kept incrementally consistent by every mutating operation; it is
// not safe for concurrent use.
type Index struct {
	cfg     config.Config
	baseDir string // repository root (absolute)
	dir     string // storage root (absolute)
	repo    *gitrepo.Repository
	logger  *slog.Logger

	email   string // local git identity
	account *entity.Entity

	ids     *trie.Trie[*entity.Entity]
	text    *search.Index
	replies map[string]map[string]struct{} // parent id -> comment ids
	paths   map[string]*entity.Entity      // repo-relative path -> entity

	dirty map[string]struct{}
	added map[string]struct{}
}

// Open locates the enclosing git repository starting at startDir,
// prepares the storage tree, performs the full load, classifies
// dirty/added paths once, and bootstraps the local account from the
// git identity if no known user matches it.
func Open(ctx context.Context, startDir string, cfg config.Config, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	baseDir, err := findRepoRoot(startDir)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		cfg:     cfg,
		baseDir: baseDir,
		dir:     filepath.Join(baseDir, cfg.DitDir),
		repo:    gitrepo.NewRepository(baseDir),
		logger:  logger,
	}

	for _, kind := range entity.Kinds() {
		if err := os.MkdirAll(filepath.Join(ix.dir, kind.DirName()), 0o750); err != nil {
			return nil, fmt.Errorf("prepare storage dir: %w", err)
		}
	}

	identity, err := ix.repo.UserIdentity(ctx)
	if err != nil {
		return nil, err
	}
	ix.email = identity.Email

	if err := ix.loadAll(); err != nil {
		return nil, err
	}
	if err := ix.refreshStatus(ctx); err != nil {
		return nil, err
	}

	if ix.account == nil {
		account := entity.New(entity.KindUser)
		account.Email = identity.Email
		account.Name = identity.Name
		if err := ix.Save(ctx, account); err != nil {
			return nil, fmt.Errorf("bootstrap account: %w", err)
		}
		ix.logger.Info("created local account", "email", account.Email, "id", account.ID)
	}

	ix.logger.Debug("index ready",
		"dir", ix.dir, "entities", ix.ids.Len(), "dirty", len(ix.dirty), "added", len(ix.added))
	return ix, nil
}

// FindRepoRoot walks up from startDir until a directory containing
// .git is found. Callers that need the root before an Index exists
// (config layering) use this directly; Open repeats the walk itself.
func FindRepoRoot(startDir string) (string, error) {
	return findRepoRoot(startDir)
}

func findRepoRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched from %s upward)", ErrNoRepository, startDir)
		}
		dir = parent
	}
}

// BaseDir returns the repository root.
func (ix *Index) BaseDir() string { return ix.baseDir }

// StorageDir returns the absolute storage root (the .dit directory).
func (ix *Index) StorageDir() string { return ix.dir }

// Account returns the local user entity.
func (ix *Index) Account() *entity.Entity { return ix.account }

// loadAll rebuilds every in-memory structure from a full directory
// scan. A single malformed file fails the whole load: an inconsistent
// partial index is worse than a failed startup.
func (ix *Index) loadAll() error {
	ix.ids = trie.New[*entity.Entity]()
	ix.text = search.NewIndex()
	ix.replies = make(map[string]map[string]struct{})
	ix.paths = make(map[string]*entity.Entity)
	ix.account = nil

	for _, kind := range entity.Kinds() {
		kindDir := filepath.Join(ix.dir, kind.DirName())
		entries, err := os.ReadDir(kindDir)
		if err != nil {
			return fmt.Errorf("scan %s: %w", kindDir, err)
		}
		for _, dirEntry := range entries {
			if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), ".yaml") {
				continue
			}
			loaded, err := ix.loadPath(ix.relPath(filepath.Join(kindDir, dirEntry.Name())))
			if err != nil {
				return err
			}
			ix.index(loaded)
		}
	}

	ix.resolveAccount()
	ix.logger.Debug("loaded storage tree", "entities", ix.ids.Len())
	return nil
}

// resolveAccount re-derives the local account from the complete user
// set. During a scan an alias chain can dead-end on a target that has
// not been loaded yet, so the chain is walked again once every user is
// in.
func (ix *Index) resolveAccount() {
	if ix.email == "" {
		return
	}
	for _, user := range ix.byKind(entity.KindUser) {
		if user.Email == ix.email {
			ix.account = ix.resolveAlias(user)
			return
		}
	}
}

// loadPath reads and decodes the entity file at the repo-relative
// path. The kind is dispatched from the storage subdirectory.
func (ix *Index) loadPath(relPath string) (*entity.Entity, error) {
	dirName := filepath.Base(filepath.Dir(relPath))
	kind, ok := entity.KindForDir(dirName)
	if !ok {
		return nil, fmt.Errorf("load %s: not under a known entity directory", relPath)
	}

	data, err := os.ReadFile(filepath.Join(ix.baseDir, relPath))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", relPath, err)
	}
	loaded, err := entity.Decode(kind, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", relPath, err)
	}
	loaded.Path = relPath
	return loaded, nil
}

// index inserts the entity into the trie, the path map, the reply
// adjacency, and the text index. Kind-specific values are posted to the
// text index; users additionally resolve the local account through
// their alias chain.
func (ix *Index) index(e *entity.Entity) {
	ix.ids.Insert(e.ID, e)
	if e.Path != "" {
		ix.paths[e.Path] = e
	}

	switch e.Kind {
	case entity.KindIssue:
		ix.text.IndexText(e.ID, e.Title)

	case entity.KindUser:
		ix.text.IndexText(e.ID, e.Name, e.Email)
		if resolved := ix.resolveAlias(e); ix.email != "" && e.Email == ix.email {
			ix.account = resolved
		}

	case entity.KindComment:
		if e.ReplyTo != "" {
			set, ok := ix.replies[e.ReplyTo]
			if !ok {
				set = make(map[string]struct{})
				ix.replies[e.ReplyTo] = set
			}
			set[e.ID] = struct{}{}
		}
		ix.text.IndexText(e.ID, e.Text)
		if e.Label != "" {
			if label, ok := ix.get(e.Label); ok {
				ix.text.IndexText(e.ID, label.Name)
			}
		}

	case entity.KindLabel:
		ix.text.IndexText(e.ID, e.Name)

	case entity.KindAsset:
		// Assets are addressed by content hash only; nothing to post.
	}
}

// purge removes the entity from every in-memory structure. It is
// always called before a mutation per the purge-before-operate,
// reindex-after-operate ordering.
func (ix *Index) purge(e *entity.Entity) {
	ix.ids.Delete(e.ID)
	ix.text.Purge(e.ID)
	if e.Path != "" {
		delete(ix.paths, e.Path)
	}
	if e.Kind == entity.KindComment && e.ReplyTo != "" {
		if set, ok := ix.replies[e.ReplyTo]; ok {
			delete(set, e.ID)
			if len(set) == 0 {
				delete(ix.replies, e.ReplyTo)
			}
		}
	}
	if ix.account != nil && ix.account.ID == e.ID {
		ix.account = nil
	}
}

// purgePath purges whatever entity currently backs the repo-relative
// path. Unknown paths are a no-op.
func (ix *Index) purgePath(relPath string) {
	if e, ok := ix.paths[relPath]; ok {
		ix.purge(e)
	}
}

// reloadPath re-reads a single file and reinserts it if it still
// exists on disk. Used after every version-control operation. Paths
// that are not entity files (asset blobs travel through the same
// pending sets) are a no-op.
func (ix *Index) reloadPath(relPath string) error {
	if !strings.HasSuffix(relPath, ".yaml") {
		return nil
	}
	if _, err := os.Stat(filepath.Join(ix.baseDir, relPath)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reload %s: %w", relPath, err)
	}
	loaded, err := ix.loadPath(relPath)
	if err != nil {
		return err
	}
	ix.index(loaded)
	return nil
}

// resolveAlias follows a user's aka chain to its canonical user. A
// seen-set guards against alias loops in hand-edited files.
func (ix *Index) resolveAlias(user *entity.Entity) *entity.Entity {
	seen := map[string]struct{}{}
	current := user
	for current.AKA != "" {
		if _, looped := seen[current.ID]; looped {
			ix.logger.Warn("alias loop detected", "user", user.ID)
			return current
		}
		seen[current.ID] = struct{}{}
		next, ok := ix.get(current.AKA)
		if !ok || next.Kind != entity.KindUser {
			return current
		}
		current = next
	}
	return current
}

// get returns the entity with exactly this full id.
func (ix *Index) get(id string) (*entity.Entity, bool) {
	return ix.ids.Get(id)
}

// Lookup resolves an id, an id prefix, or a "shortid-slug" decorated
// reference to an entity. Ambiguous prefixes resolve to the
// lexicographically first match; misses return ok=false, never an
// error.
func (ix *Index) Lookup(key string) (*entity.Entity, bool) {
	key, _, _ = strings.Cut(key, "-")
	if key == "" {
		return nil, false
	}
	_, found, ok := ix.ids.FirstPrefix(key)
	return found, ok
}

// ShortID returns the shortest prefix of the entity's id, no shorter
// than the kind minimum, that currently resolves to at most one live
// entity. It is recomputed on every call: inserting or purging
// entities changes which prefixes are ambiguous.
func (ix *Index) ShortID(e *entity.Entity) string {
	return ix.shortIDFor(e.ID, e.ShortIDMin())
}

func (ix *Index) shortIDFor(id string, minLen int) string {
	for length := minLen; length < len(id); length++ {
		if ix.ids.CountPrefix(id[:length], 2) <= 1 {
			return id[:length]
		}
	}
	return id
}

// IDsWithPrefix returns the short ids of every entity whose full id
// starts with the prefix, in id order. Used for interactive
// completion.
func (ix *Index) IDsWithPrefix(prefix string) []string {
	var shortIDs []string
	ix.ids.WalkPrefix(prefix, func(_ string, e *entity.Entity) bool {
		shortIDs = append(shortIDs, ix.ShortID(e))
		return true
	})
	return shortIDs
}

// Issues lists every issue in id order.
func (ix *Index) Issues() []*entity.Entity { return ix.byKind(entity.KindIssue) }

// Labels lists every label in id order.
func (ix *Index) Labels() []*entity.Entity { return ix.byKind(entity.KindLabel) }

// Users lists every user in id order.
func (ix *Index) Users() []*entity.Entity { return ix.byKind(entity.KindUser) }

// AllComments lists every comment in id order.
func (ix *Index) AllComments() []*entity.Entity { return ix.byKind(entity.KindComment) }

func (ix *Index) byKind(kind entity.Kind) []*entity.Entity {
	var result []*entity.Entity
	ix.ids.WalkPrefix("", func(_ string, e *entity.Entity) bool {
		if e.Kind == kind {
			result = append(result, e)
		}
		return true
	})
	return result
}

// Comments returns the direct children of a node in the reply tree,
// sorted by creation time (ties broken by id).
func (ix *Index) Comments(parentID string) []*entity.Entity {
	set, ok := ix.replies[parentID]
	if !ok {
		return nil
	}
	result := make([]*entity.Entity, 0, len(set))
	for id := range set {
		if comment, ok := ix.get(id); ok {
			result = append(result, comment)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// NewIssue returns an unsaved issue authored by the local account.
func (ix *Index) NewIssue() *entity.Entity {
	issue := entity.New(entity.KindIssue)
	issue.Author = ix.account.ID
	return issue
}

// NewLabel returns an unsaved label authored by the local account.
func (ix *Index) NewLabel() *entity.Entity {
	label := entity.New(entity.KindLabel)
	label.Author = ix.account.ID
	return label
}

// NewComment returns an unsaved comment on the given parent, authored
// by the local account.
func (ix *Index) NewComment(parent *entity.Entity) *entity.Entity {
	comment := entity.New(entity.KindComment)
	comment.Author = ix.account.ID
	comment.ReplyTo = parent.ID
	return comment
}

// relPath converts an absolute path inside the repository to the
// repo-relative slash form git uses.
func (ix *Index) relPath(abs string) string {
	rel, err := filepath.Rel(ix.baseDir, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}
