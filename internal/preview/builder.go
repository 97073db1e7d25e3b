package preview

import (
	"context"
	"io"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/build"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

// Builder runs batches for the preview and records their outcome in a State.
type Builder struct {
	Service build.BatchService
	Request build.Request
	State   *State

	// Report receives the error report of every batch. Nil discards it.
	Report  io.Writer
	Verbose bool
}

// Build runs one batch with the given trigger.
func (b *Builder) Build(ctx context.Context, trigger build.Trigger) (*build.Result, error) {
	req := b.Request
	req.Trigger = trigger
	req.Now = time.Time{}

	b.State.setBuilding()
	result, err := b.Service.Run(ctx, req)
	b.State.Set(result, err)

	if err != nil {
		slog.Warn("Batch failed", logfields.Error(err))
	}
	if result != nil {
		if b.Report != nil {
			if rerr := build.Report(b.Report, result, b.Verbose); rerr != nil {
				slog.Warn("Failed to write batch report", logfields.Error(rerr))
			}
		}
		slog.Info("Batch finished",
			logfields.BatchID(result.BatchID),
			slog.String("trigger", string(trigger)),
			slog.String("outcome", string(result.Status)),
			logfields.Pages(result.Pages))
	}
	return result, err
}
