package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/cointax/web"
)

type ServeCmd struct {
	Sources

	Port  int  `help:"Port to listen on." default:"8080"`
	Watch bool `help:"Reload the report when an input file changes." default:"true" negatable:""`
}

func (cmd *ServeCmd) Run(ctx *kong.Context, globals *Globals) error {
	if cmd.fromStdin() {
		return fmt.Errorf("serve needs at least one input file; stdin cannot be watched")
	}

	r, err := globals.setup(ctx, "serve")
	if err != nil {
		return err
	}
	defer r.finish()

	runCtx, stop := signal.NotifyContext(r.ctx, os.Interrupt)
	defer stop()

	server := web.New(cmd.Port, cmd.Files, r.ledger)
	server.Version = BuildVersion()
	server.Currency = r.settings.Output.Currency
	server.Loader = cmd.loader(r.settings)
	server.WatchEnabled = cmd.Watch

	printInfof(r.stdout, "Starting server on %s:%d", server.Host, cmd.Port)
	for _, file := range cmd.Files {
		printInfof(r.stdout, "Serving exports: %s", pathStyle.Render(file))
	}

	return server.Start(runCtx)
}
