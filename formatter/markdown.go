package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/robinvdvleuten/cointax/ledger"
)

// WriteMarkdown writes the full report as markdown: a sales table, an income
// table and the per-year summary. Empty sections are left out.
func WriteMarkdown(w io.Writer, result *ledger.Result, totals []ledger.YearTotal, currency string) error {
	var buf strings.Builder

	buf.WriteString("# Capital Gains Report\n")

	if len(result.Sales) > 0 {
		buf.WriteString("\n## Sales\n\n")
		buf.WriteString("| Date Sold | Asset | Quantity | Proceeds | Cost Basis | Gains |\n")
		buf.WriteString("|---|---|--:|--:|--:|--:|\n")
		for _, s := range result.Sales {
			fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s | %s |\n",
				s.DateSold.Format("2006-01-02"), escapeCell(s.Asset), s.Quantity.String(),
				FormatMoney(s.Total, s.Currency), FormatMoney(s.CostBasis, s.Currency), FormatMoney(s.Gains, s.Currency))
		}
	}

	if len(result.Income) > 0 {
		buf.WriteString("\n## Income\n\n")
		buf.WriteString("| Date Received | Asset | Quantity | Value |\n")
		buf.WriteString("|---|---|--:|--:|\n")
		for _, r := range result.Income {
			fmt.Fprintf(&buf, "| %s | %s | %s | %s |\n",
				r.DateReceived.Format("2006-01-02"), escapeCell(r.Asset), r.Quantity.String(), FormatMoney(r.Total, r.Currency))
		}
	}

	if len(totals) > 0 {
		buf.WriteString("\n## Summary\n\n")
		buf.WriteString("| Year | Sales | Net |\n")
		buf.WriteString("|---|--:|--:|\n")
		for _, y := range totals {
			fmt.Fprintf(&buf, "| %d | %d | %s |\n", y.Year, y.Sales, amount(y.Gains, currency))
		}
	}

	if len(result.Shortfalls) > 0 {
		fmt.Fprintf(&buf, "\n> %d disposal(s) could not be matched to held lots and were left out.\n", len(result.Shortfalls))
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

// escapeCell keeps a value from breaking out of its table cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
