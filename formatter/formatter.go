// Package formatter renders reconciliation results: CSV exports of sales and
// income, labelled console blocks, per-year totals, a markdown report and the
// rows of the open-lots table.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/cointax/ledger"
	"github.com/robinvdvleuten/cointax/output"
)

const (
	// MinimumSpacing is the minimum number of spaces between a label and its value.
	MinimumSpacing = 2

	// ConsoleDateLayout formats sale dates in console blocks.
	ConsoleDateLayout = "2006-01-02 15:04"
)

// Console labels, in the order they are printed.
const (
	labelTransactionDate = "Transaction Date:"
	labelLastAcquired    = "Last Acquired:"
	labelCostBasis       = "Cost Basis:"
	labelSpotPrice       = "Price at Transaction:"
	labelReceived        = "Date Received:"
	labelIncome          = "Income:"
)

// ConsoleWriter prints sales and income as aligned, labelled blocks.
type ConsoleWriter struct {
	w      io.Writer
	styles *output.Styles

	// LabelWidth is the column values start at. If 0, it is derived from the
	// widest label.
	LabelWidth int
}

// Option is a functional option for configuring a ConsoleWriter.
type Option func(*ConsoleWriter)

// WithStyles colours assets and gains. Without it output is plain text.
func WithStyles(styles *output.Styles) Option {
	return func(c *ConsoleWriter) {
		c.styles = styles
	}
}

// WithLabelWidth sets the column values are aligned to.
func WithLabelWidth(width int) Option {
	return func(c *ConsoleWriter) {
		c.LabelWidth = width
	}
}

// NewConsoleWriter creates a ConsoleWriter writing to w.
func NewConsoleWriter(w io.Writer, opts ...Option) *ConsoleWriter {
	c := &ConsoleWriter{w: w}
	for _, opt := range opts {
		opt(c)
	}
	if c.LabelWidth == 0 {
		c.LabelWidth = labelWidth(labelTransactionDate, labelLastAcquired, labelCostBasis, labelSpotPrice, labelReceived, labelIncome)
	}
	return c
}

func labelWidth(labels ...string) int {
	width := 0
	for _, l := range labels {
		width = max(width, runewidth.StringWidth(l))
	}
	return width + MinimumSpacing
}

func (c *ConsoleWriter) line(buf *strings.Builder, label, value string) {
	buf.WriteString(runewidth.FillRight(label, c.LabelWidth))
	buf.WriteString(value)
	buf.WriteByte('\n')
}

func (c *ConsoleWriter) asset(s string) string {
	if c.styles == nil {
		return s
	}
	return c.styles.Asset(s)
}

func (c *ConsoleWriter) signed(s string, value decimal.Decimal) string {
	if c.styles == nil {
		return s
	}
	return c.styles.Signed(s, value)
}

func (c *ConsoleWriter) keyword(s string) string {
	if c.styles == nil {
		return s
	}
	return c.styles.Keyword(s)
}

func amount(d decimal.Decimal, currency string) string {
	return FormatMoney(d, currency) + " " + currencyOf(currency)
}

// WriteSales prints one block per sale, separated by blank lines.
func (c *ConsoleWriter) WriteSales(sales []ledger.RealizedSale) error {
	var buf strings.Builder
	buf.Grow(len(sales) * 256)

	for i, s := range sales {
		if i > 0 {
			buf.WriteByte('\n')
		}
		c.formatSale(&buf, s)
	}

	_, err := io.WriteString(c.w, buf.String())
	return err
}

func (c *ConsoleWriter) formatSale(buf *strings.Builder, s ledger.RealizedSale) {
	c.line(buf, labelTransactionDate, s.DateSold.Format(ConsoleDateLayout))

	acquired := "unknown"
	if !s.LastAcquired.IsZero() {
		acquired = fmt.Sprintf("%s at %s", s.LastAcquired.Format(AcquiredDateLayout), amount(s.LastPurchasePrice, s.Currency))
	}
	c.line(buf, labelLastAcquired, acquired)
	c.line(buf, labelCostBasis, amount(s.CostBasis, s.Currency))
	c.line(buf, labelSpotPrice, amount(s.SpotPrice, s.Currency))

	word := "Gains"
	if s.IsLoss() {
		word = "Losses"
	}
	fmt.Fprintf(buf, "You sold %s %s for %s. %s are %s.\n",
		s.Quantity.String(), c.asset(s.Asset), amount(s.Total, s.Currency),
		word, c.signed(amount(s.Gains.Abs(), s.Currency), s.Gains))
}

// WriteIncome prints one block per income record.
func (c *ConsoleWriter) WriteIncome(records []ledger.IncomeRecord) error {
	var buf strings.Builder

	for i, r := range records {
		if i > 0 {
			buf.WriteByte('\n')
		}
		c.line(&buf, labelReceived, r.DateReceived.Format(AcquiredDateLayout))
		c.line(&buf, labelIncome, fmt.Sprintf("%s %s worth %s", r.Quantity.String(), c.asset(r.Asset), amount(r.Total, r.Currency)))
	}

	_, err := io.WriteString(c.w, buf.String())
	return err
}

// WriteYearTotals prints one line per year, for example
// "Total Capital Gains for 2021: $1,234.56 USD".
func (c *ConsoleWriter) WriteYearTotals(totals []ledger.YearTotal, currency string) error {
	var buf strings.Builder

	for _, y := range totals {
		word := "Gains"
		if y.IsLoss() {
			word = "Losses"
		}
		fmt.Fprintf(&buf, "%s %d: %s\n",
			c.keyword("Total Capital "+word+" for"), y.Year,
			c.signed(amount(y.Gains.Abs(), currency), y.Gains))
	}

	_, err := io.WriteString(c.w, buf.String())
	return err
}

// WriteYearTotals prints year totals without styling.
func WriteYearTotals(w io.Writer, totals []ledger.YearTotal, currency string) error {
	return NewConsoleWriter(w).WriteYearTotals(totals, currency)
}
