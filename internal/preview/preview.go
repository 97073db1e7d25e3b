package preview

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/build"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

const shutdownTimeout = 5 * time.Second

// Options configures Run.
type Options struct {
	Builder *Builder
	Handler http.Handler

	// Listener is used when set; otherwise Addr is bound.
	Listener net.Listener
	Addr     string

	// Watcher is optional; without it the site is built once and served.
	Watcher *Watcher
}

// Run performs an initial build, serves the output and rebuilds on source
// changes until ctx is done. A failing initial batch does not stop the server.
func Run(ctx context.Context, opts Options) error {
	if opts.Builder == nil || opts.Handler == nil {
		return stderrors.New("preview requires a builder and a handler")
	}

	ln, err := listen(opts.Listener, opts.Addr)
	if err != nil {
		return err
	}

	_, _ = opts.Builder.Build(ctx, build.TriggerPreview)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var watchErr error
	if opts.Watcher != nil {
		rebuildReq := make(chan struct{}, 1)
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := opts.Watcher.Run(runCtx, rebuildReq); err != nil {
				watchErr = err
				cancel()
			}
		}()
		go func() {
			defer wg.Done()
			rebuildWorker(runCtx, opts.Builder, rebuildReq)
		}()
	}

	err = Serve(runCtx, ln, opts.Handler)
	cancel()
	wg.Wait()

	if err == nil {
		err = watchErr
	}
	return err
}

// Serve serves handler on ln until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	slog.Info("Server listening", logfields.Addr(ln.Addr().String()),
		slog.String("url", "http://"+ln.Addr().String()+"/"))

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer shutdownCancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(serr))
	}
	return err
}

// Listen binds addr for Serve.
func Listen(addr string) (net.Listener, error) {
	return listen(nil, addr)
}

func listen(ln net.Listener, addr string) (net.Listener, error) {
	if ln != nil {
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return ln, nil
}

// rebuildWorker runs one batch per request. Requests arriving during a batch
// collapse into one follow-up batch.
func rebuildWorker(ctx context.Context, b *Builder, rebuildReq <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			slog.Info("Change detected; rebuilding site")
			_, _ = b.Build(ctx, build.TriggerPreview)
		}
	}
}
