// Package commands implements the pagebuilder subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger

	// Stdout receives reports and listings. Nil means os.Stdout.
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pagebuilder.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging and full error details"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render every source document into the output directory"`
	Check   CheckCmd   `cmd:"" help:"Parse, render and verify links without writing output"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Preview PreviewCmd `cmd:"" help:"Build, serve and rebuild on source changes"`
	Serve   ServeCmd   `cmd:"" help:"Rebuild periodically and serve the output"`
	History HistoryCmd `cmd:"" help:"List recent batches from the build history"`
}

// AfterApply runs after flag parsing; it installs a text logger until the
// configuration has been read.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// LoadConfig reads the configuration file and reconfigures logging from it.
// --verbose always wins over the configured level.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load configuration").
			WithContext(errors.KeyPath, c.Config).
			Fatal().
			Build()
	}
	setupLogging(cfg.Logging, c.Verbose, os.Stderr)
	return cfg, nil
}

// BaseDir is the directory chrome fragment paths are resolved against.
func (c *CLI) BaseDir() string {
	abs, err := filepath.Abs(c.Config)
	if err != nil {
		return filepath.Dir(c.Config)
	}
	return filepath.Dir(abs)
}

func setupLogging(lc config.LoggingConfig, verbose bool, w io.Writer) {
	level := lc.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ReportedError carries a batch failure whose errors were already printed.
// Only the exit code remains to be derived from it.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return fmt.Sprintf("batch failed: %v", e.Err) }
func (e *ReportedError) Unwrap() error { return e.Err }
