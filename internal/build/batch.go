package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/docmodel"
	"git.home.luguber.info/inful/pagebuilder/internal/docs"
	"git.home.luguber.info/inful/pagebuilder/internal/eventstore"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/gitinfo"
	"git.home.luguber.info/inful/pagebuilder/internal/linkverify"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
	"git.home.luguber.info/inful/pagebuilder/internal/nav"
	"git.home.luguber.info/inful/pagebuilder/internal/observability"
	"git.home.luguber.info/inful/pagebuilder/internal/page"
	"git.home.luguber.info/inful/pagebuilder/internal/render"
)

// GeneratedFormat is the layout of the {{generated}} chrome placeholder.
const GeneratedFormat = "Mon, 2 Jan 2006, 15:04:05 MST"

// Service is the standard BatchService.
type Service struct {
	recorder  metrics.Recorder
	store     eventstore.Store
	history   *eventstore.HistoryProjection
	publisher linkverify.Publisher
	revision  func(dir string) gitinfo.Revision
}

var _ BatchService = (*Service)(nil)

// NewService creates a Service without metrics, history or event publishing.
func NewService() *Service {
	return &Service{
		recorder:  metrics.NoopRecorder{},
		publisher: linkverify.NoopPublisher{},
		revision:  gitinfo.Lookup,
	}
}

// WithRecorder sets the metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory records every batch in store. projection, when not nil, is kept
// current as events are appended.
func (s *Service) WithHistory(store eventstore.Store, projection *eventstore.HistoryProjection) *Service {
	s.store = store
	s.history = projection
	return s
}

// WithPublisher sets where link integrity findings are published.
func (s *Service) WithPublisher(p linkverify.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithRevisionFunc replaces the source revision lookup (for testing).
func (s *Service) WithRevisionFunc(fn func(dir string) gitinfo.Revision) *Service {
	s.revision = fn
	return s
}

// source is a successfully parsed document.
type source struct {
	file        docs.DocFile
	doc         *docmodel.Document
	fingerprint string
}

// batch holds the state of one Run. Everything except the counters, the next
// manifest and the collector is read-only once the page phase starts.
type batch struct {
	id        string
	cfg       *config.Config
	req       Request
	outDir    string
	limit     int
	timeout   time.Duration
	recorder  metrics.Recorder
	collector *errors.Collector
	index     *linkverify.Index
	site      *nav.Site
	chrome    *page.Chrome
	signature string
	prev      *Manifest

	mu        sync.Mutex
	next      *Manifest
	rendered  int
	unchanged int
	failed    int
}

// Run executes one batch. Page-level problems are collected in the Result; the
// returned error is only set when the batch could not run at all.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if req.Config == nil {
		s.recorder.IncBatchOutcome(metrics.OutcomeFailed)
		return nil, errors.ConfigError("config required").Build()
	}
	if req.Trigger == "" {
		req.Trigger = TriggerBuild
	}
	if req.Now.IsZero() {
		req.Now = start
	}

	cfg := req.Config
	b := &batch{
		id:        uuid.NewString(),
		cfg:       cfg,
		req:       req,
		outDir:    cfg.Output.Directory,
		limit:     cfg.Render.Concurrency,
		timeout:   cfg.Render.PageTimeoutDuration(),
		recorder:  s.recorder,
		collector: errors.NewCollector(),
		index:     linkverify.NewIndex(),
		site:      nav.NewSite(cfg.Site.Nav),
	}
	if b.limit <= 0 {
		b.limit = runtime.NumCPU()
	}
	s.recorder.SetBatchConcurrency(b.limit)

	ctx = observability.WithBatchID(ctx, b.id)
	result := &Result{BatchID: b.id, StartTime: start, OutputDir: b.outDir}

	rev := s.revision(cfg.Source.Directory)
	result.Revision = rev.String()
	s.appendEvent(ctx, func() (eventstore.Event, error) {
		return eventstore.NewBatchStarted(b.id, eventstore.BatchStartedMeta{
			Trigger:     string(req.Trigger),
			Source:      cfg.Source.Directory,
			Output:      b.outDir,
			Revision:    result.Revision,
			Concurrency: b.limit,
		})
	})
	observability.InfoContext(ctx, "Batch started",
		logfields.Path(cfg.Source.Directory), logfields.Output(b.outDir))

	// Stage: discover
	stageStart := time.Now()
	ctx = observability.WithStage(ctx, "discover")
	files, err := docs.NewDiscovery(cfg.Source).Discover()
	s.recorder.ObserveStageDuration("discover", time.Since(stageStart))
	if err != nil {
		fatal := errors.WrapError(fmt.Errorf("%w: %w", ErrDiscovery, err), errors.CategoryBuild, "source discovery failed").
			Fatal().
			WithContext(errors.KeyPath, cfg.Source.Directory).
			Build()
		b.collector.Add(fatal)
		s.finish(ctx, b, result)
		return result, fatal
	}
	documents, assets := docs.Documents(files), docs.Assets(files)
	result.Pages = len(documents)
	s.appendEvent(ctx, func() (eventstore.Event, error) {
		return eventstore.NewPagesDiscovered(b.id, len(documents), len(assets))
	})

	// Stage: chrome
	if err := b.loadChrome(rev); err != nil {
		b.collector.Add(err)
		s.finish(ctx, b, result)
		return result, err
	}

	// Stage: output preparation
	if !req.CheckOnly {
		if err := b.prepareOutput(ctx); err != nil {
			b.collector.Add(err)
			s.finish(ctx, b, result)
			return result, err
		}
	}
	b.next = NewManifest(b.id, req.Now, b.signature)

	// Stage: parse
	stageStart = time.Now()
	sources := b.parse(observability.WithStage(ctx, "parse"), documents)
	s.recorder.ObserveStageDuration("parse", time.Since(stageStart))

	// Shared chrome and site nav links are checked once per batch.
	b.collector.AddAll(linkverify.CheckSiteNav(b.index, b.site))
	b.collector.AddAll(linkverify.CheckFragments(b.index, "header", b.chrome.Header))
	b.collector.AddAll(linkverify.CheckFragments(b.index, "footer", b.chrome.Footer))

	// Stage: pages
	stageStart = time.Now()
	b.buildPages(observability.WithStage(ctx, "pages"), sources)
	s.recorder.ObserveStageDuration("pages", time.Since(stageStart))

	if !req.CheckOnly && ctx.Err() == nil {
		ctx = observability.WithStage(ctx, "output")
		result.Assets = b.copyAssets(ctx, assets)
		for _, output := range removeStale(b.outDir, b.prev, b.next) {
			observability.DebugContext(ctx, "Removed stale output", logfields.Output(output))
		}
		if err := b.next.Save(b.outDir); err != nil {
			b.collector.Add(errors.WrapError(err, errors.CategoryFileSystem, "failed to write manifest").
				Warning().
				WithContext(errors.KeyPath, filepath.Join(b.outDir, ManifestFile)).
				Build())
		}
	}

	// Link findings leave the process last so they include every page.
	urls := make([]string, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			urls = append(urls, src.file.URL())
		}
	}
	if err := linkverify.PublishBatch(ctx, s.publisher, b.id, urls, b.collector.Errors()); err != nil {
		b.collector.Add(errors.WrapError(err, errors.CategoryEvents, "failed to publish link integrity events").
			Warning().
			Build())
	}

	s.finish(ctx, b, result)
	return result, nil
}

func (b *batch) loadChrome(rev gitinfo.Revision) error {
	vars := page.Vars{Title: b.cfg.Site.Title, Revision: rev.String()}

	// The signature chrome has no generation time so unchanged pages stay unchanged.
	stable, err := page.LoadChrome(b.cfg.Site.Chrome, b.req.BaseDir, vars)
	if err != nil {
		return err
	}
	if b.signature, err = siteSignature(b.cfg, stable, vars.Revision); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to compute site signature").Build()
	}

	vars.Generated = b.req.Now.Format(GeneratedFormat)
	b.chrome, err = page.LoadChrome(b.cfg.Site.Chrome, b.req.BaseDir, vars)
	return err
}

func (b *batch) prepareOutput(ctx context.Context) error {
	if b.cfg.Output.Clean && !b.cfg.Output.Incremental {
		observability.InfoContext(ctx, "Cleaning output directory", logfields.Output(b.outDir))
		if err := os.RemoveAll(b.outDir); err != nil {
			return errors.WrapError(fmt.Errorf("%w: %w", ErrOutput, err), errors.CategoryFileSystem, "failed to clean output directory").
				Fatal().
				WithContext(errors.KeyPath, b.outDir).
				Build()
		}
	}
	if err := os.MkdirAll(b.outDir, 0o750); err != nil {
		return errors.WrapError(fmt.Errorf("%w: %w", ErrOutput, err), errors.CategoryFileSystem, "failed to create output directory").
			Fatal().
			WithContext(errors.KeyPath, b.outDir).
			Build()
	}
	if b.cfg.Output.Incremental && !b.req.Force {
		b.prev = LoadManifest(b.outDir)
	}
	return nil
}

// parse builds every document model in parallel and fills the link index.
// Failed documents are left nil in the returned slice.
func (b *batch) parse(ctx context.Context, files []docs.DocFile) []*source {
	sources := make([]*source, len(files))
	var g errgroup.Group
	g.SetLimit(b.limit)
	for i, df := range files {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			doc, err := docmodel.BuildFile(ctx, df.Path, docmodel.Options{Path: df.RelativePath})
			if err != nil {
				b.collector.Add(err)
				b.pageFailed(df)
				return nil
			}
			b.index.Add(df.URL(), doc.IDs())
			sources[i] = &source{file: df, doc: doc, fingerprint: sourceFingerprint(df.Path)}
			return nil
		})
	}
	_ = g.Wait()
	return sources
}

func (b *batch) buildPages(ctx context.Context, sources []*source) {
	var g errgroup.Group
	g.SetLimit(b.limit)
	for _, src := range sources {
		if src == nil {
			continue
		}
		g.Go(func() error {
			b.buildPage(ctx, src)
			return nil
		})
	}
	_ = g.Wait()
}

// buildPage takes one document through navigation, rendering, assembly, link
// checking and the write. Nothing is written before the final step.
func (b *batch) buildPage(ctx context.Context, src *source) {
	start := time.Now()
	defer func() { b.recorder.ObservePageDuration(time.Since(start)) }()

	ctx = observability.WithPage(ctx, src.file.URL())
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		b.pageInterrupted(src, err)
		return
	}

	output := src.file.OutputPath()
	p := page.New(src.doc, b.site, output, b.cfg.Site.Title, b.cfg.Render.PageNavMaxLevel)
	b.collector.AddAll(linkverify.CheckPage(b.index, src.file.URL(), src.file.RelativePath, src.doc.Root, p.PageNav))

	if !b.req.CheckOnly && b.prev.Unchanged(output, src.fingerprint, b.signature) &&
		fileExists(filepath.Join(b.outDir, filepath.FromSlash(output))) {
		b.pageDone(src, metrics.ResultUnchanged)
		return
	}

	body, err := render.Render(src.doc.Root)
	if err != nil {
		b.collector.Add(withFile(err, src.file.RelativePath))
		b.pageFailed(src.file)
		return
	}
	assembled, err := page.Assemble(p, body, b.chrome)
	if err != nil {
		b.collector.Add(withFile(err, src.file.RelativePath))
		b.pageFailed(src.file)
		return
	}
	data, err := page.Serialize(assembled)
	if err != nil {
		b.collector.Add(errors.WrapError(err, errors.CategoryInternal, "failed to serialize page").
			At(src.file.RelativePath, 0).
			Build())
		b.pageFailed(src.file)
		return
	}
	if err := ctx.Err(); err != nil {
		b.pageInterrupted(src, err)
		return
	}

	if !b.req.CheckOnly {
		target := filepath.Join(b.outDir, filepath.FromSlash(output))
		if err := writeFile(target, data); err != nil {
			b.collector.Add(errors.WrapError(err, errors.CategoryFileSystem, "failed to write page").
				WithContext(errors.KeyPath, target).
				At(src.file.RelativePath, 0).
				Build())
			b.pageFailed(src.file)
			return
		}
	}
	observability.DebugContext(ctx, "Page rendered",
		logfields.Output(output), slog.Int("page_nav_entries", nav.Count(p.PageNav)))
	b.pageDone(src, metrics.ResultRendered)
}

func (b *batch) pageDone(src *source, result metrics.ResultLabel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next.Pages[src.file.OutputPath()] = ManifestEntry{Source: src.file.RelativePath, Fingerprint: src.fingerprint}
	switch result {
	case metrics.ResultUnchanged:
		b.unchanged++
	default:
		b.rendered++
	}
	b.recorder.IncPageResult(result)
}

// pageFailed keeps the previous output of a failed page but forgets its
// fingerprint so the next batch rebuilds it.
func (b *batch) pageFailed(df docs.DocFile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.next != nil && b.prev != nil {
		if _, ok := b.prev.Pages[df.OutputPath()]; ok {
			b.next.Pages[df.OutputPath()] = ManifestEntry{Source: df.RelativePath}
		}
	}
	b.failed++
	b.recorder.IncPageResult(metrics.ResultFailed)
}

func (b *batch) pageInterrupted(src *source, err error) {
	eb := errors.WrapError(err, errors.CategoryBuild, "page build canceled")
	if stderrors.Is(err, context.DeadlineExceeded) {
		eb = errors.WrapError(err, errors.CategoryBuild, "page build timed out").
			WithContext("timeout", b.timeout.String())
	}
	b.collector.Add(eb.At(src.file.RelativePath, 0).Build())
	b.pageFailed(src.file)
}

func (b *batch) copyAssets(ctx context.Context, assets []docs.DocFile) int {
	copied := 0
	for _, a := range assets {
		target := filepath.Join(b.outDir, filepath.FromSlash(a.OutputPath()))
		changed, err := copyAsset(a.Path, target)
		if err != nil {
			b.collector.Add(errors.WrapError(err, errors.CategoryFileSystem, "failed to copy asset").
				WithContext(errors.KeyPath, target).
				At(a.RelativePath, 0).
				Build())
			continue
		}
		if changed {
			copied++
		}
	}
	observability.DebugContext(ctx, "Assets copied", logfields.Pages(copied))
	return len(assets)
}

// finish computes the status, reports metrics and closes the batch in history.
func (s *Service) finish(ctx context.Context, b *batch, result *Result) {
	hctx := context.WithoutCancel(ctx)
	result.Errors = b.collector.Errors()
	b.mu.Lock()
	result.Rendered, result.Unchanged, result.Failed = b.rendered, b.unchanged, b.failed
	b.mu.Unlock()

	result.Status = StatusSuccess
	switch {
	case ctx.Err() != nil:
		result.Status = StatusCanceled
	case result.Err() != nil:
		result.Status = StatusFailed
	case len(result.Warnings()) > 0:
		result.Status = StatusWarning
	}
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	warnings := 0
	for _, err := range result.Errors {
		s.recorder.IncErrors(string(errors.GetCategory(err)))
		if errors.GetSeverity(err) == errors.SeverityWarning {
			warnings++
		}
		s.appendEvent(hctx, func() (eventstore.Event, error) {
			return eventstore.NewErrorRecorded(b.id, errorRecord(err))
		})
	}

	outcome := metrics.OutcomeSuccess
	switch result.Status {
	case StatusWarning:
		outcome = metrics.OutcomeWarning
	case StatusFailed, StatusCanceled:
		outcome = metrics.OutcomeFailed
	}
	s.recorder.IncBatchOutcome(outcome)
	s.recorder.ObserveBatchDuration(result.Duration)

	s.appendEvent(hctx, func() (eventstore.Event, error) {
		return eventstore.NewBatchCompleted(b.id, eventstore.BatchResult{
			Outcome:    string(result.Status),
			DurationMS: result.Duration.Milliseconds(),
			Rendered:   result.Rendered,
			Unchanged:  result.Unchanged,
			Failed:     result.Failed,
			Errors:     len(result.Errors) - warnings,
			Warnings:   warnings,
		})
	})

	observability.InfoContext(ctx, "Batch finished",
		logfields.Pages(result.Pages),
		logfields.DurationMS(float64(result.Duration.Microseconds())/1000),
		logfields.Category(string(result.Status)))
}

// appendEvent stores an event when history is enabled. History problems are
// logged but never change the batch outcome.
func (s *Service) appendEvent(ctx context.Context, build func() (eventstore.Event, error)) {
	if s.store == nil {
		return
	}
	ev, err := build()
	if err == nil {
		err = eventstore.AppendEvent(ctx, s.store, ev)
	}
	if err != nil {
		observability.WarnContext(ctx, "Failed to record batch history", logfields.Error(err))
		return
	}
	if s.history != nil {
		s.history.Apply(ev)
	}
}

func errorRecord(err error) eventstore.ErrorRecord {
	rec := eventstore.ErrorRecord{
		Category: string(errors.GetCategory(err)),
		Severity: string(errors.GetSeverity(err)),
		Message:  err.Error(),
	}
	if ce, ok := errors.AsClassified(err); ok {
		rec.Message = ce.Message()
		rec.File, _ = ce.Context().GetString(errors.KeyFile)
		rec.Line, _ = ce.Context().GetInt(errors.KeyLine)
		rec.Anchor, _ = ce.Context().GetString(errors.KeyAnchor)
	}
	return rec
}

// withFile adds the source file to classified errors that lack it.
func withFile(err error, file string) error {
	ce, ok := errors.AsClassified(err)
	if !ok {
		return errors.WrapError(err, errors.CategoryInternal, "page build failed").At(file, 0).Build()
	}
	if f, _ := ce.Context().GetString(errors.KeyFile); f == "" {
		return ce.WithContext(errors.KeyFile, file)
	}
	return ce
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
