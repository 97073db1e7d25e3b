package main

import (
	stderrors "errors"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagebuilder/cmd/pagebuilder/commands"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("pagebuilder"),
		kong.Description("Render a tree of Markdown documents into a static HTML site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := ctx.Run(&commands.Global{}, &cli)
	if err == nil {
		return
	}

	adapter := errors.NewCLIErrorAdapter(cli.Verbose, nil)
	var reported *commands.ReportedError
	if stderrors.As(err, &reported) {
		os.Exit(adapter.ExitCodeFor(reported.Err))
	}
	adapter.HandleError(err)
}
