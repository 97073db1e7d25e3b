package testutil

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// InitRepo initializes a git repository in a temporary directory and returns
// it with its path.
func InitRepo(t testing.TB) (*git.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return repo, dir
}

// CommitFiles writes files below the repository root, stages everything and
// commits at when.
func CommitFiles(t testing.TB, repo *git.Repository, files map[string]string, message string, when time.Time) plumbing.Hash {
	t.Helper()
	w, err := repo.Worktree()
	require.NoError(t, err)
	WriteFiles(t, w.Filesystem.Root(), files)

	_, err = w.Add(".")
	require.NoError(t, err)
	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: when},
	})
	require.NoError(t, err)
	return hash
}
