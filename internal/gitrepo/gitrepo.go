// Package gitrepo provides typed access to the git CLI for the tracker
// storage tree. All commands target a specific working tree via the -C
// flag, which every Repository method injects. The adapter classifies
// tracked entity paths as staged ("added") or worktree-modified
// ("dirty") and performs the add/commit/checkout operations the index
// builds its transactional semantics on.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// Repository represents a git working tree at a specific directory.
// There is no default directory — callers must always say which
// repository they mean.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given working tree.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the working tree directory.
func (r *Repository) Dir() string {
	return r.dir
}

// IsRepo reports whether dir is inside a git working tree.
func IsRepo(ctx context.Context, dir string) bool {
	command := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--is-inside-work-tree")
	out, err := command.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error messages
// on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Identity is the committer identity from git config.
type Identity struct {
	Email string
	Name  string
}

// UserIdentity reads user.email and user.name from git config.
func (r *Repository) UserIdentity(ctx context.Context) (Identity, error) {
	email, err := r.Run(ctx, "config", "user.email")
	if err != nil {
		return Identity{}, fmt.Errorf("read user.email: %w", err)
	}
	name, err := r.Run(ctx, "config", "user.name")
	if err != nil {
		return Identity{}, fmt.Errorf("read user.name: %w", err)
	}
	return Identity{
		Email: strings.TrimSpace(email),
		Name:  strings.TrimSpace(name),
	}, nil
}

// Status classifies paths under prefix relative to the repository
// root. "Added" paths are staged relative to HEAD (new or modified in
// the index); "dirty" paths have worktree modifications relative to the
// index. A path can appear in both sets. Works in a repository with no
// commits yet.
func (r *Repository) Status(ctx context.Context, prefix string) (dirty, added map[string]struct{}, err error) {
	out, err := r.Run(ctx, "status", "--porcelain", "-z", "--untracked-files=no", "--", prefix)
	if err != nil {
		return nil, nil, err
	}

	dirty = make(map[string]struct{})
	added = make(map[string]struct{})

	for _, record := range strings.Split(out, "\x00") {
		// Porcelain record: "XY <path>". Rename records carry a second
		// NUL-separated path; entity files are never renamed by the
		// tracker, and a stray rename still classifies by its first path.
		if len(record) < 4 {
			continue
		}
		indexState := record[0]
		worktreeState := record[1]
		path := record[3:]

		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if indexState != ' ' && indexState != '?' {
			added[path] = struct{}{}
		}
		if worktreeState == 'M' || worktreeState == 'D' {
			dirty[path] = struct{}{}
		}
	}
	return dirty, added, nil
}

// Add stages the given repo-relative path.
func (r *Repository) Add(ctx context.Context, path string) error {
	_, err := r.Run(ctx, "add", "--", path)
	return err
}

// Commit stages and commits exactly the given paths with the message.
func (r *Repository) Commit(ctx context.Context, message string, paths ...string) error {
	args := append([]string{"commit", "-m", message, "--"}, paths...)
	_, err := r.Run(ctx, args...)
	return err
}

// CheckoutPaths restores the HEAD-committed content of the given paths,
// discarding both staged and worktree changes.
func (r *Repository) CheckoutPaths(ctx context.Context, paths ...string) error {
	args := append([]string{"checkout", "HEAD", "--"}, paths...)
	_, err := r.Run(ctx, args...)
	return err
}

// Unstage removes a staged-but-never-committed path from the index
// without touching the worktree copy. git rm --cached is used instead
// of git reset so this works before the first commit exists.
func (r *Repository) Unstage(ctx context.Context, path string) error {
	_, err := r.Run(ctx, "rm", "--cached", "--quiet", "--", path)
	return err
}

// InHead reports whether the path exists in the HEAD commit. False
// when the repository has no commits yet.
func (r *Repository) InHead(ctx context.Context, path string) bool {
	_, err := r.Run(ctx, "cat-file", "-e", "HEAD:"+path)
	return err == nil
}

// SortedPaths returns the keys of a path set in lexicographic order.
// Status output is map-based; listings shown to users are sorted.
func SortedPaths(set map[string]struct{}) []string {
	paths := make([]string, 0, len(set))
	for path := range set {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
