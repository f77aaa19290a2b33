// Package sync implements C8, the cookbook sync contract: fetch or
// refresh a remote cookbook tree into a stable on-disk layout. It is an
// external collaborator - the core only calls Sync(name, url,
// targetPath) and never inspects git state itself.
package sync

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	log "github.com/sirupsen/logrus"
)

// Syncer fetches cookbook trees from git remotes using a clone-or-fetch
// shape, simplified to the single "make targetPath reflect url's
// default branch" contract - no per-cookbook tag/branch/revision
// pinning, since cookbooks here are synced as a whole tree, not
// resolved to a single version.
type Syncer struct {
	// Ref, if set, is the branch or ref checked out when cloning. An
	// existing checkout is fetched and pulled on its current branch;
	// Ref is not applied there.
	Ref string
}

// NewSyncer returns a Syncer with no ref override.
func NewSyncer() *Syncer {
	return &Syncer{}
}

// Sync clones url into targetPath if it does not yet contain a git
// checkout, or fetches and fast-forwards it in place otherwise. Failure
// of one cookbook must never prevent others from loading; callers are
// expected to log and continue past a returned error rather than abort.
func (s *Syncer) Sync(ctx context.Context, name, url, targetPath string) error {
	auth := authFor(url)

	repo, err := git.PlainOpen(targetPath)
	if err == nil {
		return s.update(ctx, name, repo, auth)
	}
	if !strings.Contains(err.Error(), "repository does not exist") && err != git.ErrRepositoryNotExists {
		log.WithField("cookbook", name).Debugf("opening existing checkout: %v", err)
	}
	return s.clone(ctx, name, url, targetPath, auth)
}

func (s *Syncer) clone(ctx context.Context, name, url, targetPath string, auth transport.AuthMethod) error {
	if err := os.MkdirAll(targetPath, 0o755); err != nil {
		return fmt.Errorf("creating cookbook directory for %s: %w", name, err)
	}
	opts := &git.CloneOptions{URL: url, Auth: auth}
	if s.Ref != "" {
		opts.ReferenceName = refName(s.Ref)
	}
	if _, err := git.PlainCloneContext(ctx, targetPath, false, opts); err != nil {
		return fmt.Errorf("cloning cookbook %s: %w", name, err)
	}
	return nil
}

func (s *Syncer) update(ctx context.Context, name string, repo *git.Repository, auth transport.AuthMethod) error {
	err := repo.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin", Auth: auth})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("fetching updates for cookbook %s: %w", name, err)
	}

	w, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree for cookbook %s: %w", name, err)
	}

	pullErr := w.PullContext(ctx, &git.PullOptions{RemoteName: "origin", Auth: auth})
	if pullErr != nil && pullErr != git.NoErrAlreadyUpToDate {
		log.WithField("cookbook", name).Debugf("fast-forward pull failed, keeping existing checkout: %v", pullErr)
	}
	return nil
}

func refName(ref string) plumbing.ReferenceName {
	if strings.HasPrefix(ref, "refs/") {
		return plumbing.ReferenceName(ref)
	}
	return plumbing.NewBranchReferenceName(ref)
}

// authFor picks an auth method from the URL scheme and the host's SSH
// agent or default key files: SSH agent first, then
// id_ed25519/id_ecdsa/id_rsa in turn.
func authFor(url string) transport.AuthMethod {
	if !strings.HasPrefix(url, "git@") && !strings.HasPrefix(url, "ssh://") {
		return nil
	}
	if auth, err := ssh.NewSSHAgentAuth("git"); err == nil {
		return auth
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	for _, keyName := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		keyPath := home + "/.ssh/" + keyName
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if pub, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return pub
		}
	}
	return nil
}
