package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cointax/algorand"
	"github.com/robinvdvleuten/cointax/logging"
)

// FetchCmd groups the indexer downloads.
type FetchCmd struct {
	Algorand FetchAlgorandCmd `cmd:"" help:"Download one year of Algorand account history as JSONL."`
}

// FetchAlgorandCmd downloads account histories from an Algorand indexer.
type FetchAlgorandCmd struct {
	Addresses []string `help:"Account addresses (defaults to the addresses in the configuration)." arg:"" optional:""`
	Year      int      `help:"Calendar year to fetch (defaults to last year)."`
	Out       string   `help:"Output file for a single address, or a directory that receives <address>-<year>.jsonl files." short:"o" placeholder:"PATH"`
	Force     bool     `help:"Overwrite output files without asking." short:"f"`
}

// Run executes the fetch command.
func (cmd *FetchAlgorandCmd) Run(ctx *kong.Context, globals *Globals) error {
	r, err := globals.setup(ctx, "fetch algorand")
	if err != nil {
		return err
	}
	defer r.finish()

	addresses := cmd.Addresses
	if len(addresses) == 0 {
		addresses = r.settings.Algorand.Addresses
	}
	if len(addresses) == 0 {
		return fmt.Errorf("no addresses given and none configured in [algorand] addresses")
	}

	year := cmd.Year
	if year == 0 {
		year = time.Now().UTC().Year() - 1
	}

	opts := append(r.settings.ClientOptions(), algorand.WithLogger(logging.FromContext(r.ctx)))
	client := algorand.NewClient(opts...)

	printInfof(r.stderr, "Fetching %d account(s) for %d from %s", len(addresses), year, r.settings.Algorand.IndexerURL)

	histories, err := client.FetchAccounts(r.ctx, addresses, year)
	if err != nil {
		printError(r.stderr, err.Error())
		return NewCommandError(ExitFailure, "fetch failed")
	}

	sorted := make([]string, 0, len(histories))
	for address := range histories {
		sorted = append(sorted, address)
	}
	slices.Sort(sorted)

	for _, address := range sorted {
		path, err := cmd.outputPath(address, year, len(addresses))
		if err != nil {
			return err
		}

		txns := histories[address]
		if err := writeFile(ctx, path, cmd.Force, func(w io.Writer) error {
			return algorand.WriteJSONL(w, txns)
		}); err != nil {
			return err
		}
		printSuccess(r.stdout, fmt.Sprintf("Wrote %d transaction(s) for %s to %s", len(txns), address, pathStyle.Render(path)))
	}

	return nil
}

// outputPath decides where the history of address is written. Out names a
// file only when a single address is fetched and Out is not a directory.
func (cmd *FetchAlgorandCmd) outputPath(address string, year, count int) (string, error) {
	name := fmt.Sprintf("%s-%d.jsonl", address, year)

	if cmd.Out == "" {
		return name, nil
	}

	info, err := os.Stat(cmd.Out)
	isDir := err == nil && info.IsDir()

	if count == 1 && !isDir {
		return cmd.Out, nil
	}
	if !isDir {
		if err := os.MkdirAll(cmd.Out, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return filepath.Join(cmd.Out, name), nil
}
