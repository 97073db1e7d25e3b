package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/build"
	"git.home.luguber.info/inful/pagebuilder/internal/preview"
	"git.home.luguber.info/inful/pagebuilder/internal/schedule"
)

// ServeCmd rebuilds on a fixed interval and serves the output.
type ServeCmd struct {
	Port     int           `help:"Port to serve on (overrides preview.port)"`
	Host     string        `help:"Address to bind (overrides preview.host)"`
	Interval time.Duration `help:"Rebuild interval (overrides schedule.interval)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cfg, s.Host, s.Port)
	interval := cfg.Schedule.IntervalDuration()
	if s.Interval > 0 {
		interval = s.Interval
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt := newRuntime(ctx, cfg)
	defer rt.Close()

	if err := os.MkdirAll(cfg.Output.Directory, 0o750); err != nil {
		return err
	}

	ln, err := preview.Listen(serveAddr(cfg))
	if err != nil {
		return err
	}

	state := preview.NewState()
	builder := &preview.Builder{
		Service: rt.service,
		Request: build.Request{Config: cfg, BaseDir: root.BaseDir()},
		State:   state,
		Report:  g.stdout(),
		Verbose: root.Verbose,
	}

	scheduler, err := schedule.NewScheduler()
	if err != nil {
		_ = ln.Close()
		return err
	}
	if _, err := scheduler.SchedulePeriodic("batch", interval, true, func(ctx context.Context) {
		_, _ = builder.Build(ctx, build.TriggerSchedule)
	}); err != nil {
		_ = ln.Close()
		_ = scheduler.Stop()
		return err
	}
	scheduler.Start(ctx)

	serveErr := preview.Serve(ctx, ln, newServer(cfg, rt, state))
	if err := scheduler.Stop(); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}
