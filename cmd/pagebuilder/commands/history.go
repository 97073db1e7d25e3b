package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/eventstore"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// HistoryCmd lists recent batches from the event store.
type HistoryCmd struct {
	Limit  int    `short:"n" default:"10" help:"Number of batches to list"`
	Batch  string `arg:"" optional:"" help:"Show the errors of one batch"`
	Format string `enum:"table,json" default:"table" help:"Output format (table|json)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.ConfigError("history is disabled in the configuration").Build()
	}

	ctx := context.Background()
	rt := &runtime{}
	if err := rt.openHistory(ctx, cfg.History.Path); err != nil {
		return err
	}
	defer rt.Close()

	var summaries []eventstore.BatchSummary
	if h.Batch != "" {
		s, ok := rt.projection.Batch(h.Batch)
		if !ok {
			return errors.NewError(errors.CategoryNotFound, "batch not found").
				WithContext("batch_id", h.Batch).
				Build()
		}
		summaries = []eventstore.BatchSummary{s}
	} else {
		summaries = rt.projection.History(h.Limit)
	}

	out := g.stdout()
	if h.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BATCH\tSTARTED\tTRIGGER\tSTATUS\tPAGES\tRENDERED\tUNCHANGED\tFAILED\tERRORS\tDURATION")
	for _, s := range summaries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			s.BatchID, s.StartedAt.Local().Format(time.DateTime), s.Trigger, s.Status,
			s.Pages, s.Rendered, s.Unchanged, s.Failed, len(s.Errors), s.Duration)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if h.Batch != "" {
		for _, rec := range summaries[0].Errors {
			loc := rec.File
			if rec.Line > 0 {
				loc = fmt.Sprintf("%s:%d", rec.File, rec.Line)
			}
			_, _ = fmt.Fprintf(out, "%s %s: %s: %s\n", rec.Severity, rec.Category, loc, rec.Message)
		}
	}
	return nil
}
