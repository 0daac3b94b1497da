// Package transaction defines the normalized transaction record shared by every
// source adapter (CSV exports, blockchain indexers) and the cost-basis ledger.
//
// Source adapters map their raw rows into Transaction values; the ledger never
// sees exporter-specific columns or free text other than through this package.
//
// Example usage:
//
//	ts := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
//	txn := transaction.New(ts, transaction.Buy, "BTC", decimal.RequireFromString("0.5"),
//	    transaction.WithSpotPrice(decimal.NewFromInt(50000)),
//	    transaction.WithSubtotal(decimal.NewFromInt(25000)),
//	    transaction.WithCurrency("USD"),
//	)
package transaction

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// DefaultCurrency is used when a source row carries no spot price currency.
const DefaultCurrency = "USD"

// Transaction is one normalized event on an asset. Quantity and Total are never
// negative; direction is carried by Kind.
type Transaction struct {
	Timestamp time.Time
	Kind      Kind
	RawKind   string // exporter label, kept for diagnostics
	Asset     string
	Quantity  decimal.Decimal
	SpotPrice decimal.Decimal
	Subtotal  decimal.Decimal
	Total     decimal.Decimal // inclusive of fees
	Fees      decimal.Decimal
	Currency  string
	Note      string
	Source    string // file:line or indexer id
}

// Option configures optional transaction fields.
type Option func(*Transaction)

// WithSpotPrice sets the per-unit price at the time of the event.
func WithSpotPrice(price decimal.Decimal) Option {
	return func(t *Transaction) {
		t.SpotPrice = price
	}
}

// WithSubtotal sets the value of the transaction before fees.
func WithSubtotal(subtotal decimal.Decimal) Option {
	return func(t *Transaction) {
		t.Subtotal = subtotal
	}
}

// WithTotal sets the value of the transaction including fees.
// Negative totals (as some exporters write disposals) are stored as absolute values.
func WithTotal(total decimal.Decimal) Option {
	return func(t *Transaction) {
		t.Total = total.Abs()
	}
}

// WithFees sets the fees charged for the transaction.
func WithFees(fees decimal.Decimal) Option {
	return func(t *Transaction) {
		t.Fees = fees
	}
}

// WithCurrency sets the currency of price, subtotal, total and fees.
func WithCurrency(currency string) Option {
	return func(t *Transaction) {
		if currency != "" {
			t.Currency = currency
		}
	}
}

// WithNote attaches the exporter's free-text note.
func WithNote(note string) Option {
	return func(t *Transaction) {
		t.Note = note
	}
}

// WithRawKind records the exporter label the kind was derived from.
func WithRawKind(label string) Option {
	return func(t *Transaction) {
		t.RawKind = label
	}
}

// WithSource records where the transaction came from.
func WithSource(source string) Option {
	return func(t *Transaction) {
		t.Source = source
	}
}

// New creates a transaction. The quantity is stored as an absolute value.
func New(ts time.Time, kind Kind, asset string, quantity decimal.Decimal, opts ...Option) Transaction {
	t := Transaction{
		Timestamp: ts,
		Kind:      kind,
		RawKind:   kind.String(),
		Asset:     asset,
		Quantity:  quantity.Abs(),
		Currency:  DefaultCurrency,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// Label returns the exporter label if one was recorded, the kind name otherwise.
func (t Transaction) Label() string {
	if t.RawKind != "" {
		return t.RawKind
	}
	return t.Kind.String()
}

func (t Transaction) String() string {
	return fmt.Sprintf("[%s] %s %s @ %s %s", t.Label(), t.Quantity.String(), t.Asset, t.SpotPrice.String(), t.Currency)
}

// Transactions is an ordered list of transactions.
type Transactions []Transaction

// SortStable orders transactions by timestamp. Transactions sharing a
// timestamp keep their relative input order.
func (ts Transactions) SortStable() {
	slices.SortStableFunc(ts, func(a, b Transaction) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// Sorted returns a chronologically sorted copy, leaving ts untouched.
func (ts Transactions) Sorted() Transactions {
	out := slices.Clone(ts)
	out.SortStable()
	return out
}

// Assets returns the distinct asset symbols, sorted.
func (ts Transactions) Assets() []string {
	seen := make(map[string]struct{})
	for _, t := range ts {
		seen[t.Asset] = struct{}{}
	}
	assets := make([]string, 0, len(seen))
	for a := range seen {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	return assets
}

// Years returns the distinct calendar years covered, ascending.
func (ts Transactions) Years() []int {
	seen := make(map[int]struct{})
	for _, t := range ts {
		seen[t.Timestamp.Year()] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
