package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteFilesAndAssertions(t *testing.T) {
	root := t.TempDir()
	WriteFiles(t, root, map[string]string{
		"index.html":         "<h1>Home</h1>",
		"guides/devops.html": "<h2 id=\"setup\">Setup</h2>",
	})

	NewSiteAssertions(t, root).
		HasFile("index.html").
		Contains("guides/devops.html", `id="setup"`, "Setup").
		LacksFile("guides/missing.html")
}

func TestCommitFiles(t *testing.T) {
	repo, _ := InitRepo(t)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	hash := CommitFiles(t, repo, map[string]string{"docs/index.md": "# Home\n"}, "Initial commit", when)

	head, err := repo.Head()
	require.NoError(t, err)
	require.Equal(t, hash, head.Hash())
}
