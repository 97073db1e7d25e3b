package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/pagebuilder/internal/build"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	// Check runs leave no history or events behind.
	cfg.History.Enabled = false
	cfg.Events.Enabled = false

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunBatch(ctx, g, root, cfg, build.Request{
		Config:    cfg,
		BaseDir:   root.BaseDir(),
		Trigger:   build.TriggerCheck,
		CheckOnly: true,
	})
}
