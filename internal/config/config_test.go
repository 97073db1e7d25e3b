package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("site:\n  title: Guide\n"))
	require.NoError(t, err)

	require.Equal(t, "Guide", cfg.Site.Title)
	require.Equal(t, "./docs", cfg.Source.Directory)
	require.Equal(t, []string{".md", ".markdown", ".html"}, cfg.Source.Extensions)
	require.Equal(t, "./site", cfg.Output.Directory)
	require.Equal(t, 3, cfg.Render.PageNavMaxLevel)
	require.Equal(t, runtime.NumCPU(), cfg.Render.Concurrency)
	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
	require.Equal(t, LogFormatText, cfg.Logging.Format)
	require.Equal(t, "pagebuilder", cfg.Metrics.Namespace)
	require.Equal(t, "pagebuilder.link_integrity", cfg.Events.Subject)
	require.Equal(t, 1313, cfg.Preview.Port)
	require.Equal(t, 300*time.Millisecond, cfg.Preview.DebounceDuration())
	require.Equal(t, 15*time.Minute, cfg.Schedule.IntervalDuration())
	require.Zero(t, cfg.Render.PageTimeoutDuration())
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("PB_TITLE", "From Env")
	cfg, err := Parse([]byte("site:\n  title: ${PB_TITLE}\n"))
	require.NoError(t, err)
	require.Equal(t, "From Env", cfg.Site.Title)
}

func TestParse_NormalizesEnums(t *testing.T) {
	cfg, err := Parse([]byte("logging:\n  level: WARNING\n  format: JSON\nsource:\n  extensions: [MD, markdown]\n"))
	require.NoError(t, err)
	require.Equal(t, LogLevelWarn, cfg.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Logging.Format)
	require.Equal(t, []string{".md", ".markdown"}, cfg.Source.Extensions)
}

func TestParse_RenderBounds(t *testing.T) {
	cfg, err := Parse([]byte("render:\n  page_nav_max_level: 9\n  concurrency: 2\n  page_timeout: 5s\n"))
	require.NoError(t, err)
	require.Equal(t, 6, cfg.Render.PageNavMaxLevel)
	require.Equal(t, 2, cfg.Render.Concurrency)
	require.Equal(t, 5*time.Second, cfg.Render.PageTimeoutDuration())
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"same source and output", "source:\n  directory: ./x\noutput:\n  directory: x\n", "must differ"},
		{"bad extension", "source:\n  extensions: [.txt]\n", "unsupported extension"},
		{"bad duration", "render:\n  page_timeout: soon\n", "render.page_timeout"},
		{"nav without target", "site:\n  nav:\n    - title: Empty\n", "either href or children"},
		{"nested nav without title", "site:\n  nav:\n    - title: A\n      children:\n        - href: /b.html\n", "site.nav[0].children[0]: title is required"},
		{"port range", "preview:\n  port: 70000\n", "preview.port"},
		{"backoff mode", "events:\n  backoff: random\n", "events.backoff"},
		{"malformed yaml", "site: [", "unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParse_ValidationErrorIsClassified(t *testing.T) {
	_, err := Parse([]byte("source:\n  extensions: [.txt]\npreview:\n  port: -1\n"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.ErrorContains(t, err, "source.extensions: unsupported extension \".txt\"; preview.port: out of range: -1")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "configuration file not found")
}

func TestInit_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagebuilder.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.ErrorContains(t, err, "already exists")
	require.NoError(t, Init(path, true))

	t.Setenv("NATS_URL", "")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Project Documentation", cfg.Site.Title)
	require.Len(t, cfg.Site.Nav, 2)
	require.Len(t, cfg.Site.Nav[1].Children, 2)
	require.Equal(t, "nats://127.0.0.1:4222", cfg.Events.NATSURL)
	require.True(t, cfg.Output.Incremental)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PB_ENV_ONLY=from-file\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("PB_ENV_ONLY", "")
	require.NoError(t, os.Unsetenv("PB_ENV_ONLY"))

	loadEnvFiles()
	require.Equal(t, "from-file", os.Getenv("PB_ENV_ONLY"))
}

func TestCompositeDefaultApplier_Domains(t *testing.T) {
	c := NewDefaultApplier()
	for _, d := range []string{"site", "source", "output", "render", "logging", "observability", "preview"} {
		require.NotNil(t, c.GetApplierByDomain(d), d)
	}
	require.Nil(t, c.GetApplierByDomain("hugo"))
}
