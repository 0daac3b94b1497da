package formatter

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/cointax/ledger"
	"github.com/robinvdvleuten/cointax/output"
	"github.com/robinvdvleuten/cointax/transaction"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleSale() ledger.RealizedSale {
	return ledger.RealizedSale{
		DateSold:          time.Date(2021, 3, 1, 8, 15, 0, 0, time.UTC),
		LastAcquired:      time.Date(2021, 1, 4, 10, 0, 0, 0, time.UTC),
		LastPurchasePrice: dec("30000"),
		Quantity:          dec("0.5"),
		Asset:             "BTC",
		SpotPrice:         dec("40000"),
		OriginalCost:      dec("20000"),
		Currency:          "USD",
		CostBasis:         dec("15000"),
		Total:             dec("19900"),
		Gains:             dec("4900"),
		Fees:              dec("100"),
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		expected string
	}{
		{name: "Thousands", amount: "1234.56", currency: "USD", expected: "$1,234.56"},
		{name: "PadsFraction", amount: "12.5", currency: "USD", expected: "$12.50"},
		{name: "Negative", amount: "-12.3", currency: "USD", expected: "-$12.30"},
		{name: "LowercaseCode", amount: "1", currency: "usd", expected: "$1.00"},
		{name: "DefaultCurrency", amount: "0", currency: "", expected: "$0.00"},
		{name: "UnknownCode", amount: "12.5", currency: "ZZZ", expected: "12.50 ZZZ"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, FormatMoney(dec(test.amount), test.currency))
		})
	}
}

func TestSalesWriter(t *testing.T) {
	t.Run("Rows", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewSalesWriter(&buf).WriteAll([]ledger.RealizedSale{sampleSale()})
		assert.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Equal(t, 2, len(lines))
		assert.Equal(t, strings.Join(SaleColumns, ","), lines[0])
		assert.Equal(t, "2021-03-01T08:15:00Z,01/04/2021 10:00,30000,0.5,BTC,40000,20000.00,USD,15000.00,19900.00,4900.00,100.00", lines[1])
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, NewSalesWriter(&buf).WriteAll(nil))
		assert.Equal(t, strings.Join(SaleColumns, ",")+"\n", buf.String())
	})

	t.Run("UnknownAcquisition", func(t *testing.T) {
		sale := sampleSale()
		sale.LastAcquired = time.Time{}

		var buf bytes.Buffer
		assert.NoError(t, NewSalesWriter(&buf).WriteAll([]ledger.RealizedSale{sale}))
		assert.Contains(t, buf.String(), "2021-03-01T08:15:00Z,,30000,")
	})
}

func TestIncomeWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewIncomeWriter(&buf)
	assert.NoError(t, w.Write(ledger.IncomeRecord{
		DateReceived: time.Date(2021, 3, 2, 9, 0, 0, 0, time.UTC),
		Quantity:     dec("10"),
		Asset:        "XLM",
		SpotPrice:    dec("0.4"),
		Currency:     "USD",
		Total:        dec("4"),
	}))
	assert.NoError(t, w.Flush())
	assert.NoError(t, w.Error())

	expected := strings.Join(IncomeColumns, ",") + "\n" + "03/02/2021 09:00,10,XLM,0.4,USD,4.00,0.00\n"
	assert.Equal(t, expected, buf.String())
}

func TestConsoleWriterSales(t *testing.T) {
	row := func(label, value string) string {
		return fmt.Sprintf("%-23s%s\n", label, value)
	}

	t.Run("Gain", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, NewConsoleWriter(&buf).WriteSales([]ledger.RealizedSale{sampleSale()}))

		expected := row("Transaction Date:", "2021-03-01 08:15") +
			row("Last Acquired:", "01/04/2021 10:00 at $30,000.00 USD") +
			row("Cost Basis:", "$15,000.00 USD") +
			row("Price at Transaction:", "$40,000.00 USD") +
			"You sold 0.5 BTC for $19,900.00 USD. Gains are $4,900.00 USD.\n"
		assert.Equal(t, expected, buf.String())
	})

	t.Run("Loss", func(t *testing.T) {
		sale := sampleSale()
		sale.Gains = dec("-50")

		var buf bytes.Buffer
		assert.NoError(t, NewConsoleWriter(&buf).WriteSales([]ledger.RealizedSale{sale}))
		assert.Contains(t, buf.String(), "Losses are $50.00 USD.")
	})

	t.Run("Separated", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, NewConsoleWriter(&buf).WriteSales([]ledger.RealizedSale{sampleSale(), sampleSale()}))
		assert.Equal(t, 1, strings.Count(buf.String(), "\n\n"))
	})

	t.Run("LabelWidth", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, NewConsoleWriter(&buf, WithLabelWidth(30)).WriteSales([]ledger.RealizedSale{sampleSale()}))
		assert.True(t, strings.HasPrefix(buf.String(), fmt.Sprintf("%-30s2021", "Transaction Date:")))
	})

	t.Run("PlainStyles", func(t *testing.T) {
		var plain, styled bytes.Buffer
		assert.NoError(t, NewConsoleWriter(&plain).WriteSales([]ledger.RealizedSale{sampleSale()}))
		// A buffer is not a terminal, so styles render as plain text.
		assert.NoError(t, NewConsoleWriter(&styled, WithStyles(output.NewStyles(&styled))).WriteSales([]ledger.RealizedSale{sampleSale()}))
		assert.Equal(t, plain.String(), styled.String())
	})
}

func TestConsoleWriterIncome(t *testing.T) {
	var buf bytes.Buffer
	err := NewConsoleWriter(&buf).WriteIncome([]ledger.IncomeRecord{{
		DateReceived: time.Date(2021, 3, 2, 9, 0, 0, 0, time.UTC),
		Quantity:     dec("10"),
		Asset:        "XLM",
		Currency:     "USD",
		Total:        dec("4"),
	}})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "10 XLM worth $4.00 USD")
}

func TestWriteYearTotals(t *testing.T) {
	var buf bytes.Buffer
	err := WriteYearTotals(&buf, []ledger.YearTotal{
		{Year: 2021, Gains: dec("1234.56"), Sales: 3},
		{Year: 2022, Gains: dec("-10"), Sales: 1},
	}, "USD")
	assert.NoError(t, err)
	assert.Equal(t, "Total Capital Gains for 2021: $1,234.56 USD\nTotal Capital Losses for 2022: $10.00 USD\n", buf.String())
}

func TestWriteMarkdown(t *testing.T) {
	sale := sampleSale()
	result := &ledger.Result{Sales: []ledger.RealizedSale{sale}}
	totals := ledger.SummarizeByYear(result.Sales)

	var buf bytes.Buffer
	assert.NoError(t, WriteMarkdown(&buf, result, totals, "USD"))

	out := buf.String()
	assert.Contains(t, out, "## Sales")
	assert.Contains(t, out, "| 2021-03-01 | BTC | 0.5 | $19,900.00 | $15,000.00 | $4,900.00 |")
	assert.Contains(t, out, "| 2021 | 1 | $4,900.00 USD |")
	assert.NotContains(t, out, "## Income")
	assert.NotContains(t, out, "could not be matched")
}

func TestOpenLots(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2021, 3, d, 0, 0, 0, 0, time.UTC) }
	txns := transaction.Transactions{
		transaction.New(day(1), transaction.Buy, "BTC", dec("1"), transaction.WithSpotPrice(dec("100")), transaction.WithSubtotal(dec("100"))),
		transaction.New(day(2), transaction.Sell, "BTC", dec("0.4"), transaction.WithSpotPrice(dec("150")), transaction.WithSubtotal(dec("60")), transaction.WithTotal(dec("60"))),
		transaction.New(day(3), transaction.Send, "BTC", dec("0.1"), transaction.WithSpotPrice(dec("150"))),
	}

	result, err := ledger.Reconcile(context.Background(), txns, ledger.NewConfig())
	assert.NoError(t, err)

	rows := OpenLots(result.Positions)
	assert.Equal(t, [][]string{
		{"BTC", "03/01/2021 00:00", "0.5", "100.00", "50.00", "held"},
		{"BTC", "03/03/2021 00:00", "0.1", "100.00", "10.00", "withdrawn"},
	}, rows)
}
