package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/pagebuilder/internal/build"
	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory (overrides output.directory)" type:"path"`
	Clean  bool   `help:"Remove the output directory before building"`
	Force  bool   `help:"Rewrite every page even when it is unchanged"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.Clean {
		cfg.Output.Clean = true
		cfg.Output.Incremental = false
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunBatch(ctx, g, root, cfg, build.Request{
		Config:  cfg,
		BaseDir: root.BaseDir(),
		Trigger: build.TriggerBuild,
		Force:   b.Force,
	})
}

// RunBatch runs one batch, prints its report and turns a failing result into
// a ReportedError.
func RunBatch(ctx context.Context, g *Global, root *CLI, cfg *config.Config, req build.Request) error {
	rt := newRuntime(ctx, cfg)
	defer rt.Close()

	slog.Info("Starting batch",
		slog.String("trigger", string(req.Trigger)),
		logfields.Path(cfg.Source.Directory),
		logfields.Output(cfg.Output.Directory))

	result, err := rt.service.Run(ctx, req)
	if result != nil {
		if rerr := build.Report(g.stdout(), result, root.Verbose); rerr != nil {
			slog.Warn("Failed to write batch report", logfields.Error(rerr))
		}
	}
	if err != nil {
		return err
	}
	if failing := result.Err(); failing != nil {
		return &ReportedError{Err: failing}
	}
	if result.Status == build.StatusCanceled {
		return ctx.Err()
	}
	return nil
}
