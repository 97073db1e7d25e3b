package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/docs"
	"git.home.luguber.info/inful/pagebuilder/internal/eventstore"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/gitinfo"
	"git.home.luguber.info/inful/pagebuilder/internal/linkverify"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2024, 3, 26, 10, 19, 26, 0, time.UTC)

const indexSource = `---
title: Home
---
# Welcome

See the [guide](guides/devops.md#setup) and [this](guides/devops.md#nope).

## Overview
`

const devopsSource = `# DevOps

## Setup

### Details

## Setup
`

const brokenSource = "# Broken\n\n```go\nfunc main() {}\n"

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.Directory = filepath.Join(dir, "docs")
	cfg.Output.Directory = filepath.Join(dir, "site")
	cfg.Output.Clean = false
	cfg.Output.Incremental = true
	cfg.Render.Concurrency = 4
	cfg.Site.Title = "Docs"
	cfg.Site.Nav = []config.NavItem{
		{Title: "Home", Href: "/index.html"},
		{Title: "Guides", Children: []config.NavItem{
			{Title: "DevOps", Href: "/guides/devops.html"},
		}},
	}
	writeSource(t, cfg.Source.Directory, "index.md", indexSource)
	writeSource(t, cfg.Source.Directory, "guides/devops.md", devopsSource)
	writeSource(t, cfg.Source.Directory, "guides/img/diagram.png", "png")
	return cfg
}

func newTestService() *Service {
	return NewService().WithRevisionFunc(func(string) gitinfo.Revision {
		return gitinfo.Revision{Commit: "0123456789abcdef", Branch: "main"}
	})
}

func readOutput(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Output.Directory, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestRunLinkIntegrityErrorDoesNotAbortBatch(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg.Source.Directory, "guides/broken.md", brokenSource)

	result, err := newTestService().Run(context.Background(), Request{Config: cfg, Now: fixedNow})
	require.NoError(t, err)

	require.Equal(t, 3, result.Pages)
	require.Equal(t, 2, result.Rendered)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, 1, result.Assets)
	require.Equal(t, StatusFailed, result.Status)
	require.Equal(t, "main@0123456", result.Revision)

	linkErrs := filterCategory(result.Errors, errors.CategoryLinkIntegrity)
	require.Len(t, linkErrs, 1)
	ce, ok := errors.AsClassified(linkErrs[0])
	require.True(t, ok)
	anchor, _ := ce.Context().GetString(errors.KeyAnchor)
	require.Equal(t, "nope", anchor)
	require.Equal(t, "index.md:6", ce.Location())

	parseErrs := filterCategory(result.Errors, errors.CategoryParse)
	require.Len(t, parseErrs, 1)
	pe, _ := errors.AsClassified(parseErrs[0])
	require.Equal(t, "guides/broken.md:3", pe.Location())

	index := readOutput(t, cfg, "index.html")
	require.Contains(t, index, "<title>Home - Docs</title>")
	require.Contains(t, index, `id="overview"`)
	require.Contains(t, index, `id="site-nav"`)
	require.Contains(t, index, `id="page-nav"`)
	require.Contains(t, index, "generated on "+fixedNow.Format(GeneratedFormat))

	devops := readOutput(t, cfg, "guides/devops.html")
	require.Contains(t, devops, `id="setup"`)
	require.Contains(t, devops, `id="setup-1"`)
	require.Contains(t, devops, `class="current"`)

	require.FileExists(t, filepath.Join(cfg.Output.Directory, "guides", "img", "diagram.png"))
	require.NoFileExists(t, filepath.Join(cfg.Output.Directory, "guides", "broken.html"))
	require.FileExists(t, filepath.Join(cfg.Output.Directory, ManifestFile))

	require.Error(t, result.Err())
	require.Len(t, result.Warnings(), 0)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService()

	_, err := svc.Run(context.Background(), Request{Config: cfg, Now: fixedNow, Force: true})
	require.NoError(t, err)
	first := readOutput(t, cfg, "guides/devops.html")

	cfg2 := *cfg
	cfg2.Output.Directory = filepath.Join(t.TempDir(), "site")
	_, err = svc.Run(context.Background(), Request{Config: &cfg2, Now: fixedNow, Force: true})
	require.NoError(t, err)
	second := readOutput(t, &cfg2, "guides/devops.html")

	require.Equal(t, first, second)
}

func TestRunIncremental(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService()

	first, err := svc.Run(context.Background(), Request{Config: cfg, Now: fixedNow})
	require.NoError(t, err)
	require.Equal(t, 2, first.Rendered)

	later := fixedNow.Add(time.Hour)
	second, err := svc.Run(context.Background(), Request{Config: cfg, Now: later})
	require.NoError(t, err)
	require.Equal(t, 0, second.Rendered)
	require.Equal(t, 2, second.Unchanged)
	require.Contains(t, readOutput(t, cfg, "index.html"), fixedNow.Format(GeneratedFormat))

	writeSource(t, cfg.Source.Directory, "guides/devops.md", devopsSource+"\n## Rollback\n")
	third, err := svc.Run(context.Background(), Request{Config: cfg, Now: later})
	require.NoError(t, err)
	require.Equal(t, 1, third.Rendered)
	require.Equal(t, 1, third.Unchanged)
	require.Contains(t, readOutput(t, cfg, "guides/devops.html"), `id="rollback"`)

	forced, err := svc.Run(context.Background(), Request{Config: cfg, Now: later, Force: true})
	require.NoError(t, err)
	require.Equal(t, 2, forced.Rendered)
}

func TestRunRemovesStaleOutput(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService()

	_, err := svc.Run(context.Background(), Request{Config: cfg, Now: fixedNow})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(cfg.Output.Directory, "guides", "devops.html"))

	require.NoError(t, os.Remove(filepath.Join(cfg.Source.Directory, "guides", "devops.md")))
	result, err := svc.Run(context.Background(), Request{Config: cfg, Now: fixedNow})
	require.NoError(t, err)
	require.NoFileExists(t, filepath.Join(cfg.Output.Directory, "guides", "devops.html"))

	// The remaining page and the site nav now point at a missing page.
	require.NotEmpty(t, result.Warnings())
}

func TestRunCheckOnlyWritesNothing(t *testing.T) {
	cfg := testConfig(t)

	result, err := newTestService().Run(context.Background(), Request{Config: cfg, Trigger: TriggerCheck, CheckOnly: true, Now: fixedNow})
	require.NoError(t, err)
	require.Equal(t, 2, result.Rendered)
	require.Len(t, filterCategory(result.Errors, errors.CategoryLinkIntegrity), 1)

	_, statErr := os.Stat(cfg.Output.Directory)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunChromeLinksAreChecked(t *testing.T) {
	cfg := testConfig(t)
	base := filepath.Dir(cfg.Source.Directory)
	writeSource(t, base, "chrome/header.html", `<header><a href="/index.html">Home</a> <a href="/gone.html">Gone</a></header>`)
	cfg.Site.Chrome.Header = "chrome/header.html"

	result, err := newTestService().Run(context.Background(), Request{Config: cfg, BaseDir: base, Now: fixedNow})
	require.NoError(t, err)

	warnings := result.Warnings()
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Error(), "/gone.html")
	require.Contains(t, readOutput(t, cfg, "index.html"), `<a href="/gone.html">Gone</a>`)
}

func TestRunMissingChromeIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Site.Chrome.Footer = "does-not-exist.html"

	result, err := newTestService().Run(context.Background(), Request{Config: cfg, BaseDir: t.TempDir(), Now: fixedNow})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.Equal(t, StatusFailed, result.Status)
	require.Equal(t, 0, result.Rendered)
}

func TestRunMissingSourceDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Directory = filepath.Join(t.TempDir(), "missing")
	cfg.Output.Directory = filepath.Join(t.TempDir(), "site")

	result, err := newTestService().Run(context.Background(), Request{Config: cfg})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryBuild))
	require.True(t, stderrors.Is(err, ErrDiscovery))
	require.Equal(t, StatusFailed, result.Status)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := newTestService().Run(context.Background(), Request{})
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestRunCanceled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestService().Run(ctx, Request{Config: cfg, Now: fixedNow})
	require.NoError(t, err)
	require.Equal(t, StatusCanceled, result.Status)
	require.Equal(t, 0, result.Rendered)
}

func TestRunPageTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.PageTimeout = "1ns"

	result, err := newTestService().Run(context.Background(), Request{Config: cfg, Now: fixedNow})
	require.NoError(t, err)
	require.Equal(t, StatusFailed, result.Status)
	require.Equal(t, 2, result.Failed)
	require.Equal(t, 0, result.Rendered)

	timeouts := filterCategory(result.Errors, errors.CategoryBuild)
	require.Len(t, timeouts, 2)
	for _, err := range timeouts {
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.ErrorContains(t, err, "page build timed out")
	}
	require.NoFileExists(t, filepath.Join(cfg.Output.Directory, "index.html"))
}

func TestPageInterruptedUsesWrappedDeadline(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"own deadline", context.DeadlineExceeded, "page build timed out"},
		{"wrapped parent deadline", fmt.Errorf("parent: %w", context.DeadlineExceeded), "page build timed out"},
		{"canceled", context.Canceled, "page build canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &batch{timeout: time.Second, recorder: metrics.NoopRecorder{}, collector: errors.NewCollector()}
			b.pageInterrupted(&source{file: docs.DocFile{RelativePath: "a.md", Name: "a"}}, tt.err)

			errs := b.collector.Errors()
			require.Len(t, errs, 1)
			require.ErrorContains(t, errs[0], tt.want)
			require.ErrorIs(t, errs[0], tt.err)
			require.Equal(t, 1, b.failed)
		})
	}
}

func TestRunWriteFailureKeepsCause(t *testing.T) {
	cfg := testConfig(t)
	// A file where the guides directory belongs makes every write below it fail.
	require.NoError(t, os.MkdirAll(cfg.Output.Directory, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Output.Directory, "guides"), []byte("x"), 0o600))

	result, err := newTestService().Run(context.Background(), Request{Config: cfg, Now: fixedNow})
	require.NoError(t, err)
	require.Equal(t, StatusFailed, result.Status)
	require.Equal(t, 1, result.Rendered)
	require.Equal(t, 1, result.Failed)

	var writeErr error
	for _, e := range filterCategory(result.Errors, errors.CategoryFileSystem) {
		if ce, ok := errors.AsClassified(e); ok && ce.Message() == "failed to write page" {
			writeErr = e
		}
	}
	require.Error(t, writeErr)
	ce, _ := errors.AsClassified(writeErr)
	require.NotNil(t, ce.Cause())
	require.Equal(t, ce.Cause(), stderrors.Unwrap(writeErr))
	require.ErrorIs(t, writeErr, syscall.ENOTDIR)
	require.Equal(t, "guides/devops.md", ce.Location())
	require.FileExists(t, filepath.Join(cfg.Output.Directory, "index.html"))
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	results  map[metrics.ResultLabel]int
	outcomes map[metrics.BatchOutcome]int
	errors   map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		results:  map[metrics.ResultLabel]int{},
		outcomes: map[metrics.BatchOutcome]int{},
		errors:   map[string]int{},
	}
}

func (c *countingRecorder) IncPageResult(r metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[r]++
}

func (c *countingRecorder) IncBatchOutcome(o metrics.BatchOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[o]++
}

func (c *countingRecorder) IncErrors(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[category]++
}

type capturingPublisher struct {
	linkverify.NoopPublisher
	mu     sync.Mutex
	events []*linkverify.Event
}

func (p *capturingPublisher) Publish(_ context.Context, ev *linkverify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func TestRunReportsToCollaborators(t *testing.T) {
	cfg := testConfig(t)
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	projection := eventstore.NewHistoryProjection(store, 10)
	rec := newCountingRecorder()
	pub := &capturingPublisher{}

	result, err := newTestService().
		WithRecorder(rec).
		WithHistory(store, projection).
		WithPublisher(pub).
		Run(context.Background(), Request{Config: cfg, Now: fixedNow})
	require.NoError(t, err)

	require.Equal(t, 2, rec.results[metrics.ResultRendered])
	require.Equal(t, 1, rec.outcomes[metrics.OutcomeFailed])
	require.Equal(t, 1, rec.errors["link_integrity"])

	require.Len(t, pub.events, 1)
	require.Equal(t, "nope", pub.events[0].Anchor)
	require.Equal(t, result.BatchID, pub.events[0].BatchID)
	require.Equal(t, "/index.html", pub.events[0].Page)

	last, ok := projection.Last()
	require.True(t, ok)
	require.Equal(t, result.BatchID, last.BatchID)
	require.Equal(t, "failed", last.Status)
	require.Equal(t, 2, last.Pages)
	require.Len(t, last.Errors, 1)
	require.Equal(t, "nope", last.Errors[0].Anchor)

	events, err := store.GetByBatchID(context.Background(), result.BatchID)
	require.NoError(t, err)
	require.Equal(t, eventstore.TypeBatchStarted, events[0].Type())
	require.Equal(t, eventstore.TypeBatchCompleted, events[len(events)-1].Type())
}

func TestReport(t *testing.T) {
	cfg := testConfig(t)
	result, err := newTestService().Run(context.Background(), Request{Config: cfg, Now: fixedNow, CheckOnly: true})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Report(&sb, result, false))
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "link_integrity: index.md:6: anchor referenced but not defined: #nope", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "pages=2 rendered=2 unchanged=0 failed=0 assets=0 errors=1 warnings=0"), lines[1])
	require.True(t, strings.HasSuffix(lines[1], "outcome=failed"), lines[1])
}

func filterCategory(errs []error, category errors.ErrorCategory) []error {
	var out []error
	for _, err := range errs {
		if errors.HasCategory(err, category) {
			out = append(out, err)
		}
	}
	return out
}
