package cli

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/robinvdvleuten/cointax/transaction"
)

// DoctorCmd provides doctor utilities for debugging exports and settings.
type DoctorCmd struct {
	Dump   DumpCmd   `cmd:"" help:"Show the normalized transactions read from exports."`
	Config ConfigCmd `cmd:"" help:"Show the effective configuration as TOML."`
}

// DumpCmd prints every normalized transaction in load order.
type DumpCmd struct {
	Sources
}

// dumpedTransaction is a transaction with its amounts in plain notation.
type dumpedTransaction struct {
	Timestamp string
	Kind      string
	RawKind   string
	Asset     string
	Quantity  string
	SpotPrice string
	Subtotal  string
	Total     string
	Fees      string
	Currency  string
	Note      string
	Source    string
}

func dump(t transaction.Transaction) dumpedTransaction {
	return dumpedTransaction{
		Timestamp: t.Timestamp.Format(time.RFC3339),
		Kind:      t.Kind.String(),
		RawKind:   t.RawKind,
		Asset:     t.Asset,
		Quantity:  t.Quantity.String(),
		SpotPrice: t.SpotPrice.String(),
		Subtotal:  t.Subtotal.String(),
		Total:     t.Total.String(),
		Fees:      t.Fees.String(),
		Currency:  t.Currency,
		Note:      t.Note,
		Source:    t.Source,
	}
}

// Run executes the dump command.
func (cmd *DumpCmd) Run(ctx *kong.Context, globals *Globals) error {
	r, err := globals.setup(ctx, "doctor dump")
	if err != nil {
		return err
	}
	defer r.finish()

	renderer := NewErrorRenderer()
	loaded, err := cmd.load(r, renderer)
	if err != nil {
		_, _ = fmt.Fprintln(r.stderr, renderer.Render(err))
		return NewCommandError(ExitFailure, "failed to load exports")
	}

	printer := repr.New(r.stdout, repr.Indent("  "), repr.OmitEmpty(true))
	for _, t := range loaded.Transactions {
		printer.Println(dump(t))
	}

	printInfof(r.stderr, "%d transaction(s) from %d file(s)", len(loaded.Transactions), len(loaded.Files))
	return nil
}

// ConfigCmd prints the settings after the file, environment and flags are
// applied.
type ConfigCmd struct{}

// Run executes the config command.
func (cmd *ConfigCmd) Run(ctx *kong.Context, globals *Globals) error {
	r, err := globals.setup(ctx, "doctor config")
	if err != nil {
		return err
	}
	defer r.finish()

	data, err := toml.Marshal(r.settings)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = r.stdout.Write(data)
	return err
}
