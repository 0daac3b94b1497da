package cli

import (
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/robinvdvleuten/cointax/formatter"
	"github.com/robinvdvleuten/cointax/ledger"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

type IncomeCmd struct {
	Sources

	Output string `help:"Write income records to this CSV file." short:"o" placeholder:"FILE.csv"`
	Force  bool   `help:"Overwrite the output file without asking." short:"f"`
}

func (cmd *IncomeCmd) Run(ctx *kong.Context, globals *Globals) error {
	r, err := globals.setup(ctx, "income")
	if err != nil {
		return err
	}
	defer r.finish()

	result, err := r.reconcile(&cmd.Sources)
	if err != nil {
		return err
	}

	if cmd.Output != "" {
		if err := writeFile(ctx, cmd.Output, cmd.Force, func(w io.Writer) error {
			return writeIncome(w, result.Income)
		}); err != nil {
			return err
		}
		printSuccess(r.stdout, fmt.Sprintf("Wrote %d income record(s) to %s", len(result.Income), pathStyle.Render(cmd.Output)))
	} else {
		console := formatter.NewConsoleWriter(r.stdout, formatter.WithStyles(r.styles))
		if err := console.WriteIncome(result.Income); err != nil {
			return err
		}
	}

	total := ledger.TotalIncome(result.Income)
	_, _ = fmt.Fprintf(r.stdout, "%s %s %s\n",
		r.styles.Keyword("Total Income:"),
		formatter.FormatMoney(total, r.settings.Output.Currency),
		r.settings.Output.Currency)

	r.warnShortfalls(result)
	return nil
}

type LotsCmd struct {
	Sources

	Asset string `help:"Only show lots of this asset."`
}

func (cmd *LotsCmd) Run(ctx *kong.Context, globals *Globals) error {
	r, err := globals.setup(ctx, "lots")
	if err != nil {
		return err
	}
	defer r.finish()

	result, err := r.reconcile(&cmd.Sources)
	if err != nil {
		return err
	}

	positions := result.Positions
	if cmd.Asset != "" {
		p, ok := result.Position(cmd.Asset)
		if !ok {
			return fmt.Errorf("no transactions for asset %s", cmd.Asset)
		}
		positions = []*ledger.Position{p}
	}

	rows := formatter.OpenLots(positions)
	if len(rows) == 0 {
		printInfof(r.stdout, "No open lots")
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(errContextStyle).
		Headers(formatter.LotHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			// Quantity, price and cost basis.
			if col >= 2 && col <= 4 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})

	_, _ = fmt.Fprintln(r.stdout, t.Render())

	r.warnShortfalls(result)
	return nil
}

type SummaryCmd struct {
	Sources
}

func (cmd *SummaryCmd) Run(ctx *kong.Context, globals *Globals) error {
	r, err := globals.setup(ctx, "summary")
	if err != nil {
		return err
	}
	defer r.finish()

	result, err := r.reconcile(&cmd.Sources)
	if err != nil {
		return err
	}

	totals := ledger.SummarizeByYear(result.Sales)
	if len(totals) == 0 {
		printInfof(r.stdout, "No realized sales")
	}

	console := formatter.NewConsoleWriter(r.stdout, formatter.WithStyles(r.styles))
	if err := console.WriteYearTotals(totals, r.settings.Output.Currency); err != nil {
		return err
	}

	r.warnShortfalls(result)
	return nil
}
