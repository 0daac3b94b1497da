package main

import (
	"errors"
	"os"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/cointax/cli"
)

var app struct {
	Version kong.VersionFlag `help:"Show version information"`
	cli.Commands
}

func main() {
	ctx := kong.Parse(&app,
		kong.Vars{
			"version": cli.BuildVersion(),
		},
		kong.Name("cointax"),
		kong.Description("Cost basis and capital gains reports for crypto exchange exports."),
		kong.UsageOnError(),
		kong.Bind(&app.Globals),
	)

	err := ctx.Run()

	var cmdErr *cli.CommandError
	if errors.As(err, &cmdErr) {
		os.Exit(cmdErr.ExitCode())
	}
	ctx.FatalIfErrorf(err)
}
