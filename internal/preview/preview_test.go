package preview

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/pagebuilder/internal/build"
	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/gitinfo"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingService struct {
	inner build.BatchService
	runs  atomic.Int32
}

func (c *countingService) Run(ctx context.Context, req build.Request) (*build.Result, error) {
	c.runs.Add(1)
	return c.inner.Run(ctx, req)
}

func previewConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.Directory = filepath.Join(dir, "docs")
	cfg.Output.Directory = filepath.Join(dir, "site")
	cfg.Output.Incremental = true
	cfg.History.Enabled = false
	require.NoError(t, os.MkdirAll(cfg.Source.Directory, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Source.Directory, "index.md"),
		[]byte("# Welcome\n\n## Overview\n"), 0o600))
	return cfg
}

func TestRunBuildsServesAndRebuilds(t *testing.T) {
	cfg := previewConfig(t)
	svc := &countingService{inner: build.NewService().WithRevisionFunc(func(string) gitinfo.Revision {
		return gitinfo.Revision{}
	})}
	state := NewState()
	builder := &Builder{
		Service: svc,
		Request: build.Request{Config: cfg, BaseDir: filepath.Dir(cfg.Source.Directory)},
		State:   state,
	}
	watcher, err := NewWatcher(cfg.Source.Directory, 20*time.Millisecond, cfg.Output.Directory)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{
			Builder:  builder,
			Handler:  NewServer(ServerOptions{OutputDir: cfg.Output.Directory, State: state}),
			Listener: ln,
			Watcher:  watcher,
		})
	}()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	base := "http://" + ln.Addr().String()

	require.Eventually(t, func() bool {
		resp, err := client.Get(base + StatusPath)
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		var status statusResponse
		if json.NewDecoder(resp.Body).Decode(&status) != nil {
			return false
		}
		return resp.StatusCode == http.StatusOK && status.Status == string(build.StatusSuccess)
	}, 10*time.Second, 50*time.Millisecond)

	resp, err := client.Get(base + "/index.html")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Source.Directory, "guide.md"),
		[]byte("# Guide\n"), 0o600))
	require.Eventually(t, func() bool {
		return svc.runs.Load() >= 2 && !state.Snapshot().Building
	}, 10*time.Second, 50*time.Millisecond)
	require.FileExists(t, filepath.Join(cfg.Output.Directory, "guide.html"))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("preview did not shut down")
	}
}

func TestRunRequiresBuilder(t *testing.T) {
	require.Error(t, Run(context.Background(), Options{}))
}

func TestRunReportsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	b := &Builder{Service: &countingService{inner: build.NewService()}, State: NewState()}
	err = Run(context.Background(), Options{
		Builder: b,
		Handler: http.NotFoundHandler(),
		Addr:    ln.Addr().String(),
	})
	require.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, NewServer(ServerOptions{OutputDir: t.TempDir()})) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
