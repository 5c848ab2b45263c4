package gitrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initRepo creates a git repository with a local committer identity in
// a temp directory and returns its path. No commits are made so tests
// can exercise the zero-history paths.
func initRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	run(t, dir, "init")
	run(t, dir, "config", "user.email", "test@test.local")
	run(t, dir, "config", "user.name", "Test User")
	return dir
}

func run(t *testing.T, dir string, args ...string) {
	t.Helper()

	command := exec.Command("git", append([]string{"-C", dir}, args...)...)
	if output, err := command.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, output)
	}
}

func writeFile(t *testing.T, dir, relPath, content string) {
	t.Helper()

	path := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", relPath, err)
	}
}

func TestIsRepo(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	ctx := context.Background()

	if !IsRepo(ctx, dir) {
		t.Error("IsRepo = false inside a repository")
	}

	if IsRepo(ctx, t.TempDir()) {
		t.Error("IsRepo = true outside a repository")
	}
}

func TestUserIdentity(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	repo := NewRepository(dir)

	identity, err := repo.UserIdentity(context.Background())
	if err != nil {
		t.Fatalf("UserIdentity: %v", err)
	}

	if identity.Email != "test@test.local" || identity.Name != "Test User" {
		t.Errorf("identity = %+v", identity)
	}
}

func TestStatusFreshRepo(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	dirty, added, err := repo.Status(ctx, ".dit/")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(dirty) != 0 || len(added) != 0 {
		t.Errorf("fresh repo status = dirty %v, added %v; want empty", dirty, added)
	}

	// A staged new file appears as added, not dirty, even with zero
	// commits to diff against.
	writeFile(t, dir, ".dit/issues/abc.yaml", "id: abc\n")
	if err := repo.Add(ctx, ".dit/issues/abc.yaml"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	dirty, added, err = repo.Status(ctx, ".dit/")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if _, ok := added[".dit/issues/abc.yaml"]; !ok {
		t.Errorf("added = %v, want the staged file", added)
	}
	if len(dirty) != 0 {
		t.Errorf("dirty = %v, want empty", dirty)
	}
}

func TestStatusDirtyAfterCommitAndModify(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	writeFile(t, dir, ".dit/issues/abc.yaml", "id: abc\n")
	run(t, dir, "add", ".dit/issues/abc.yaml")
	run(t, dir, "commit", "-m", "initial")

	writeFile(t, dir, ".dit/issues/abc.yaml", "id: abc\ntitle: changed\n")

	dirty, added, err := repo.Status(ctx, ".dit/")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if _, ok := dirty[".dit/issues/abc.yaml"]; !ok {
		t.Errorf("dirty = %v, want the modified file", dirty)
	}
	if len(added) != 0 {
		t.Errorf("added = %v, want empty", added)
	}
}

func TestStatusIgnoresPathsOutsidePrefix(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	writeFile(t, dir, "README.md", "hello\n")
	run(t, dir, "add", "README.md")

	_, added, err := repo.Status(ctx, ".dit/")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(added) != 0 {
		t.Errorf("added = %v, want nothing outside .dit/", added)
	}
}

func TestCommitAndCheckoutPaths(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	writeFile(t, dir, ".dit/issues/abc.yaml", "id: abc\n")
	if err := repo.Add(ctx, ".dit/issues/abc.yaml"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Commit(ctx, "dit commit", ".dit/issues/abc.yaml"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	writeFile(t, dir, ".dit/issues/abc.yaml", "id: abc\ntitle: mangled\n")

	if err := repo.CheckoutPaths(ctx, ".dit/issues/abc.yaml"); err != nil {
		t.Fatalf("CheckoutPaths: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, ".dit/issues/abc.yaml"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "id: abc\n" {
		t.Errorf("content after checkout = %q, want committed content", content)
	}

	dirty, added, err := repo.Status(ctx, ".dit/")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(dirty) != 0 || len(added) != 0 {
		t.Errorf("status after checkout = dirty %v, added %v; want clean", dirty, added)
	}
}

func TestUnstageBeforeFirstCommit(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	writeFile(t, dir, ".dit/issues/abc.yaml", "id: abc\n")
	if err := repo.Add(ctx, ".dit/issues/abc.yaml"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// git reset would fail here (no HEAD); Unstage must still work.
	if err := repo.Unstage(ctx, ".dit/issues/abc.yaml"); err != nil {
		t.Fatalf("Unstage: %v", err)
	}

	_, added, err := repo.Status(ctx, ".dit/")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(added) != 0 {
		t.Errorf("added = %v after unstage, want empty", added)
	}
}

func TestCheckoutMissingHistoryFails(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	repo := NewRepository(dir)

	err := repo.CheckoutPaths(context.Background(), ".dit/issues/never-committed.yaml")
	if err == nil {
		t.Fatal("CheckoutPaths succeeded for a path with no committed version")
	}
	if !strings.Contains(err.Error(), "git checkout") {
		t.Errorf("error %v does not identify the failed command", err)
	}
}
