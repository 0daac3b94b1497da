package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/glamour"

	"github.com/robinvdvleuten/cointax/formatter"
	"github.com/robinvdvleuten/cointax/ledger"
)

type GainsCmd struct {
	Sources

	Output       string `help:"Write realized sales to this CSV file instead of stdout." short:"o" placeholder:"FILE.csv"`
	IncomeOutput string `help:"Also write income records to this CSV file." placeholder:"FILE.csv"`
	Force        bool   `help:"Overwrite output files without asking." short:"f"`
	Console      bool   `help:"Print every sale as a labelled block instead of CSV."`
	Markdown     bool   `help:"Print a markdown report instead of CSV."`
	Strict       bool   `help:"Fail with exit code 2 when a disposal cannot be fully accounted for."`
}

func (cmd *GainsCmd) Run(ctx *kong.Context, globals *Globals) error {
	r, err := globals.setup(ctx, "gains")
	if err != nil {
		return err
	}
	defer r.finish()

	result, err := r.reconcile(&cmd.Sources)
	if err != nil {
		return err
	}

	currency := r.settings.Output.Currency
	totals := ledger.SummarizeByYear(result.Sales)

	// Year totals go to stderr when stdout carries the CSV.
	info := r.stdout

	switch {
	case cmd.Markdown:
		if err := r.writeMarkdown(result, totals); err != nil {
			return err
		}
	case cmd.Console:
		console := formatter.NewConsoleWriter(r.stdout, formatter.WithStyles(r.styles))
		if err := console.WriteSales(result.Sales); err != nil {
			return err
		}
	case cmd.Output == "":
		info = r.stderr
		if err := writeSales(r.stdout, result.Sales); err != nil {
			return err
		}
	}

	if cmd.Output != "" {
		if err := writeFile(ctx, cmd.Output, cmd.Force, func(w io.Writer) error {
			return writeSales(w, result.Sales)
		}); err != nil {
			return err
		}
		printSuccess(info, fmt.Sprintf("Wrote %d sale(s) to %s", len(result.Sales), pathStyle.Render(cmd.Output)))
	}

	if cmd.IncomeOutput != "" {
		if err := writeFile(ctx, cmd.IncomeOutput, cmd.Force, func(w io.Writer) error {
			return writeIncome(w, result.Income)
		}); err != nil {
			return err
		}
		printSuccess(info, fmt.Sprintf("Wrote %d income record(s) to %s", len(result.Income), pathStyle.Render(cmd.IncomeOutput)))
	}

	if !cmd.Markdown {
		console := formatter.NewConsoleWriter(info, formatter.WithStyles(r.styles))
		if err := console.WriteYearTotals(totals, currency); err != nil {
			return err
		}
	}

	if cmd.Strict {
		return r.strictShortfalls(result)
	}
	r.warnShortfalls(result)
	return nil
}

// writeMarkdown prints the markdown report, rendered with glamour when stdout
// is a terminal.
func (r *run) writeMarkdown(result *ledger.Result, totals []ledger.YearTotal) error {
	var buf bytes.Buffer
	if err := formatter.WriteMarkdown(&buf, result, totals, r.settings.Output.Currency); err != nil {
		return err
	}

	width, ok := terminalWidth(r.stdout)
	if !ok {
		_, err := r.stdout.Write(buf.Bytes())
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(buf.String())
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(r.stdout, rendered)
	return err
}

func writeSales(w io.Writer, sales []ledger.RealizedSale) error {
	return formatter.NewSalesWriter(w).WriteAll(sales)
}

func writeIncome(w io.Writer, records []ledger.IncomeRecord) error {
	return formatter.NewIncomeWriter(w).WriteAll(records)
}

// writeFile creates path and fills it with write. An existing file is only
// replaced when force is set or the user confirms.
func writeFile(ctx *kong.Context, path string, force bool, write func(io.Writer) error) error {
	if _, err := os.Stat(path); err == nil && !force {
		confirmed, err := promptYesNo(ctx, fmt.Sprintf("File %q already exists. Overwrite it?", path))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !confirmed {
			return fmt.Errorf("file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
