// Package gitinfo reads the revision of the repository holding the source documents.
package gitinfo

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when no repository contains the directory.
var ErrNotRepository = errors.New("not a git repository")

// Revision describes the commit checked out at HEAD.
type Revision struct {
	Commit      string
	Branch      string // empty on a detached HEAD
	CommittedAt time.Time
}

// Short returns the abbreviated commit hash.
func (r Revision) Short() string {
	if len(r.Commit) > 7 {
		return r.Commit[:7]
	}
	return r.Commit
}

// String formats the revision for the {{revision}} chrome placeholder.
func (r Revision) String() string {
	if r.Commit == "" {
		return ""
	}
	if r.Branch != "" {
		return r.Branch + "@" + r.Short()
	}
	return r.Short()
}

// Head resolves HEAD of the repository containing dir, searching parent directories.
func Head(dir string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Revision{}, ErrNotRepository
		}
		return Revision{}, fmt.Errorf("open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		return Revision{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	rev := Revision{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		rev.Branch = ref.Name().Short()
	}
	if commit, cerr := repo.CommitObject(ref.Hash()); cerr == nil {
		rev.CommittedAt = commit.Committer.When
	}
	return rev, nil
}

// Lookup is Head without the error: sources outside a repository have no revision.
func Lookup(dir string) Revision {
	rev, err := Head(dir)
	if err != nil {
		return Revision{}
	}
	return rev
}
