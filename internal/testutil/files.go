// Package testutil holds helpers shared by tests: source trees, git
// repositories and assertions on generated output.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFiles writes each slash-separated relative path in files below root.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(files[name]), 0o600))
	}
}

// SiteAssertions checks the state of an output directory.
type SiteAssertions struct {
	t    testing.TB
	root string
}

// NewSiteAssertions creates assertions rooted at an output directory.
func NewSiteAssertions(t testing.TB, root string) *SiteAssertions {
	return &SiteAssertions{t: t, root: root}
}

func (s *SiteAssertions) path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// HasFile fails unless rel exists as a regular file.
func (s *SiteAssertions) HasFile(rel string) *SiteAssertions {
	s.t.Helper()
	require.FileExists(s.t, s.path(rel))
	return s
}

// LacksFile fails if rel exists.
func (s *SiteAssertions) LacksFile(rel string) *SiteAssertions {
	s.t.Helper()
	require.NoFileExists(s.t, s.path(rel))
	return s
}

// Contains fails unless rel contains every fragment.
func (s *SiteAssertions) Contains(rel string, fragments ...string) *SiteAssertions {
	s.t.Helper()
	data, err := os.ReadFile(s.path(rel))
	require.NoError(s.t, err)
	for _, f := range fragments {
		require.Contains(s.t, string(data), f, "in %s", rel)
	}
	return s
}
