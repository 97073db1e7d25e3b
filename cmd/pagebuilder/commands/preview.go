package commands

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"git.home.luguber.info/inful/pagebuilder/internal/build"
	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/preview"
)

// PreviewCmd builds the site, serves it and rebuilds on source changes.
type PreviewCmd struct {
	Port    int    `help:"Port to serve on (overrides preview.port)"`
	Host    string `help:"Address to bind (overrides preview.host)"`
	NoWatch bool   `name:"no-watch" help:"Build once and serve without watching sources"`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cfg, p.Host, p.Port)
	// Every preview batch writes output; nothing is cleaned between rebuilds.
	cfg.Output.Incremental = true

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt := newRuntime(ctx, cfg)
	defer rt.Close()

	if err := os.MkdirAll(cfg.Output.Directory, 0o750); err != nil {
		return err
	}

	state := preview.NewState()
	opts := preview.Options{
		Builder: &preview.Builder{
			Service: rt.service,
			Request: build.Request{Config: cfg, BaseDir: root.BaseDir()},
			State:   state,
			Report:  g.stdout(),
			Verbose: root.Verbose,
		},
		Handler: newServer(cfg, rt, state),
		Addr:    serveAddr(cfg),
	}
	if !p.NoWatch {
		w, err := preview.NewWatcher(cfg.Source.Directory, cfg.Preview.DebounceDuration(), cfg.Output.Directory)
		if err != nil {
			return err
		}
		opts.Watcher = w
	}
	return preview.Run(ctx, opts)
}

func applyServeFlags(cfg *config.Config, host string, port int) {
	if host != "" {
		cfg.Preview.Host = host
	}
	if port > 0 {
		cfg.Preview.Port = port
	}
}

func serveAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Preview.Host, strconv.Itoa(cfg.Preview.Port))
}

func newServer(cfg *config.Config, rt *runtime, state *preview.State) *preview.Server {
	return preview.NewServer(preview.ServerOptions{
		OutputDir:   cfg.Output.Directory,
		State:       state,
		History:     rt.projection,
		Registry:    rt.registry,
		MetricsPath: cfg.Metrics.Path,
	})
}
