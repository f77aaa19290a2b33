package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func seedSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("git init: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "recipes"), 0o755); err != nil {
		t.Fatalf("mkdir recipes: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "recipes", "zlib.toml"), []byte("name = \"zlib\"\n"), 0o644); err != nil {
		t.Fatalf("seeding recipe: %v", err)
	}

	if _, err := w.Add("recipes/zlib.toml"); err != nil {
		t.Fatalf("git add: %v", err)
	}
	_, err = w.Commit("seed", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	if err != nil {
		t.Fatalf("git commit: %v", err)
	}

	return dir
}

func TestSyncClonesOnFirstCall(t *testing.T) {
	source := seedSourceRepo(t)
	target := filepath.Join(t.TempDir(), "acme")

	s := NewSyncer()
	if err := s.Sync(context.Background(), "acme", source, target); err != nil {
		t.Fatalf("Sync (clone): %v", err)
	}

	if _, err := os.Stat(filepath.Join(target, "recipes", "zlib.toml")); err != nil {
		t.Fatalf("expected cloned file: %v", err)
	}
}

func TestSyncUpdatesExistingCheckout(t *testing.T) {
	source := seedSourceRepo(t)
	target := filepath.Join(t.TempDir(), "acme")

	s := NewSyncer()
	if err := s.Sync(context.Background(), "acme", source, target); err != nil {
		t.Fatalf("initial Sync: %v", err)
	}

	// Second Sync against an already-cloned target takes the fetch/pull
	// path rather than clone, and must not error even when there is
	// nothing new to fetch.
	if err := s.Sync(context.Background(), "acme", source, target); err != nil {
		t.Fatalf("second Sync (update path): %v", err)
	}
}

func TestAuthForReturnsNilForHTTPSURL(t *testing.T) {
	if auth := authFor("https://github.com/example/cookbook.git"); auth != nil {
		t.Fatalf("expected no auth method for an https url, got %v", auth)
	}
}
