package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/cointax/transaction"
)

// timestampLayouts are tried in order for every timestamp cell.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05 UTC",
	"2006-01-02T15:04:05.999Z",
	time.RFC3339,
	"2006-01-02",
}

// field is one cell of the current row.
type field struct {
	index int
	value string
}

// cell looks up a column of the current row by (prefix of) its name. Missing
// columns and short rows read as empty.
func (p *parser) cell(row []string, name string) field {
	i, ok := p.header.index(name)
	if !ok || i >= len(row) {
		return field{index: 0}
	}
	return field{index: i, value: strings.TrimSpace(row[i])}
}

// amount parses a numeric cell. Blank cells are zero; currency symbols and
// thousands separators are ignored.
func (p *parser) amount(f field) (decimal.Decimal, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ':
			return -1
		}
		return r
	}, f.value)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, p.errorAt(f.index, fmt.Errorf("invalid number %q", f.value))
	}
	return d, nil
}

func (p *parser) timestamp(f field) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, f.value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, p.errorAt(f.index, fmt.Errorf("invalid timestamp %q", f.value))
}

// amounts parses several numeric cells, stopping at the first error.
func (p *parser) amounts(fields ...field) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(fields))
	for i, f := range fields {
		d, err := p.amount(f)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func (p *parser) decodeCoinbase(row []string) (transaction.Transaction, bool, error) {
	ts, err := p.timestamp(p.cell(row, "timestamp"))
	if err != nil {
		return transaction.Transaction{}, false, err
	}

	values, err := p.amounts(
		p.cell(row, "quantity transacted"),
		p.cell(row, "spot price at transaction"),
		p.cell(row, "subtotal"),
		p.cell(row, "total"),
		p.cell(row, "fees"),
	)
	if err != nil {
		return transaction.Transaction{}, false, err
	}

	label := p.interner.Intern(p.cell(row, "transaction type").value)
	asset := p.interner.Intern(p.cell(row, "asset").value)
	if asset == "" {
		return transaction.Transaction{}, false, p.errorAt(0, fmt.Errorf("missing asset"))
	}

	return transaction.New(ts, transaction.ParseKind(label), asset, values[0],
		transaction.WithRawKind(label),
		transaction.WithCurrency(p.interner.Intern(p.cell(row, "spot price currency").value)),
		transaction.WithSpotPrice(values[1]),
		transaction.WithSubtotal(values[2].Abs()),
		transaction.WithTotal(values[3]),
		transaction.WithFees(values[4].Abs()),
		transaction.WithNote(p.cell(row, "notes").value),
		transaction.WithSource(p.source()),
	), true, nil
}

// decodeFill maps a Coinbase Pro fill. BUY and SELL sides become buys and
// sells; the subtotal is size × price.
func (p *parser) decodeFill(row []string) (transaction.Transaction, bool, error) {
	ts, err := p.timestamp(p.cell(row, "created at"))
	if err != nil {
		return transaction.Transaction{}, false, err
	}

	values, err := p.amounts(
		p.cell(row, "size"),
		p.cell(row, "price"),
		p.cell(row, "fee"),
		p.cell(row, "total"),
	)
	if err != nil {
		return transaction.Transaction{}, false, err
	}
	size, price := values[0].Abs(), values[1]

	side := p.cell(row, "side").value
	kind := transaction.Unknown
	switch strings.ToUpper(side) {
	case "BUY":
		kind = transaction.Buy
	case "SELL":
		kind = transaction.Sell
	}

	return transaction.New(ts, kind, p.interner.Intern(p.cell(row, "size unit").value), size,
		transaction.WithRawKind(p.interner.Intern(side)),
		transaction.WithCurrency(p.interner.Intern(p.cell(row, "price/fee/total unit").value)),
		transaction.WithSpotPrice(price),
		transaction.WithSubtotal(size.Mul(price)),
		transaction.WithTotal(values[3]),
		transaction.WithFees(values[2].Abs()),
		transaction.WithNote(p.cell(row, "product").value),
		transaction.WithSource(p.source()),
	), true, nil
}

// decodeAccount maps a Coinbase Pro account statement row. Only withdrawals
// are kept: trades come from the fills report, and deposits and fees do not
// change what was paid for the asset.
func (p *parser) decodeAccount(row []string) (transaction.Transaction, bool, error) {
	typ := strings.ToLower(p.cell(row, "type").value)

	switch typ {
	case "match", "deposit", "fee":
		p.log.WithField("type", typ).Debugf("%s: skipping account row", p.source())
		return transaction.Transaction{}, false, nil
	}

	ts, err := p.timestamp(p.cell(row, "time"))
	if err != nil {
		return transaction.Transaction{}, false, err
	}
	amount, err := p.amount(p.cell(row, "amount"))
	if err != nil {
		return transaction.Transaction{}, false, err
	}

	kind := transaction.Unknown
	if typ == "withdrawal" {
		kind = transaction.Send
	}

	return transaction.New(ts, kind, p.interner.Intern(p.cell(row, "amount/balance unit").value), amount,
		transaction.WithRawKind(p.interner.Intern(typ)),
		transaction.WithNote(p.cell(row, "transfer id").value),
		transaction.WithSource(p.source()),
	), true, nil
}
