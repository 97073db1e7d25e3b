package gitinfo

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/testutil"
)

func TestHead(t *testing.T) {
	repo, repoPath := testutil.InitRepo(t)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	hash := testutil.CommitFiles(t, repo, map[string]string{"docs/index.md": "# Home"}, "Initial commit", when)

	rev, err := Head(filepath.Join(repoPath, "docs"))
	require.NoError(t, err)
	require.Equal(t, hash.String(), rev.Commit)
	require.Equal(t, "master", rev.Branch)
	require.Equal(t, hash.String()[:7], rev.Short())
	require.Equal(t, "master@"+hash.String()[:7], rev.String())
	require.True(t, rev.CommittedAt.Equal(when))
}

func TestHeadOutsideRepository(t *testing.T) {
	_, err := Head(t.TempDir())
	require.ErrorIs(t, err, ErrNotRepository)

	require.Empty(t, Lookup(t.TempDir()).String())
}
