// Package gitinfo captures repository state for run records. It uses a pure
// Go git implementation, so no git binary is required at record time.
package gitinfo

import (
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Snapshot is the repository state at capture time. When IsRepo is false
// all other fields are zero.
type Snapshot struct {
	IsRepo    bool
	Root      string
	Commit    string
	Branch    *string
	Detached  bool
	Dirty     bool
	Untracked int
}

// Capture inspects the repository containing dir, walking up to find the
// .git directory the way the git CLI does. Capture is best-effort: anything
// that prevents reading repository state (no repository, a bare repository,
// an unborn HEAD) reports IsRepo false instead of failing the record.
func Capture(dir string) Snapshot {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Snapshot{}
	}
	head, err := repo.Head()
	if err != nil {
		// Covers repositories with no commits yet.
		return Snapshot{}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return Snapshot{}
	}

	snap := Snapshot{
		IsRepo:   true,
		Root:     wt.Filesystem.Root(),
		Commit:   head.Hash().String(),
		Detached: head.Name() == plumbing.HEAD,
	}
	if !snap.Detached {
		branch := head.Name().Short()
		snap.Branch = &branch
	}

	status, err := wt.Status()
	if err != nil {
		return Snapshot{}
	}
	for _, fileStatus := range status {
		if fileStatus.Staging == git.Untracked {
			snap.Untracked++
			continue
		}
		if fileStatus.Staging != git.Unmodified || fileStatus.Worktree != git.Unmodified {
			snap.Dirty = true
		}
	}
	return snap
}
