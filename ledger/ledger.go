// Package ledger implements the cost-basis ledger: per-asset queues of
// acquisition lots, the matcher that prices disposals against them, and the
// classifier that routes each transaction kind to the right mutation.
//
// A ledger is built for one run and replays a full transaction history:
//
//	result, err := ledger.Reconcile(ctx, txns, ledger.NewConfig())
//	if err != nil {
//	    return err
//	}
//	for _, year := range ledger.SummarizeByYear(result.Sales) {
//	    fmt.Println(year.Year, year.Gains)
//	}
//
// Shortfalls (disposals the lots cannot account for) are logged and
// collected; unknown transaction kinds, malformed convert notes and
// inconsistent positions stop the run.
package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cointax/logging"
	"github.com/robinvdvleuten/cointax/telemetry"
	"github.com/robinvdvleuten/cointax/transaction"
)

// Ledger tracks the positions of every asset seen in a run along with the
// sales and income they produced.
type Ledger struct {
	config     *Config
	matcher    *Matcher
	positions  map[string]*Position
	sales      []RealizedSale
	income     []IncomeRecord
	shortfalls []*ShortfallError
}

// New creates an empty ledger. A nil config uses NewConfig.
func New(cfg *Config) *Ledger {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Ledger{
		config:    cfg,
		matcher:   NewMatcher(cfg),
		positions: make(map[string]*Position),
	}
}

// Config returns the ledger's run configuration.
func (l *Ledger) Config() *Config {
	return l.config
}

// Process applies transactions in the order given. Callers wanting
// chronological order should sort first, or use Reconcile.
func (l *Ledger) Process(ctx context.Context, txns transaction.Transactions) error {
	timer := telemetry.StartTimer(ctx, "ledger.process")
	defer timer.End()

	for _, t := range txns {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Apply(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Apply routes one transaction to the mutation for its kind and checks the
// affected position afterwards. Shortfalls are recorded, not returned.
func (l *Ledger) Apply(ctx context.Context, t transaction.Transaction) error {
	log := logging.FromContext(ctx)
	log.WithFields(logrus.Fields{
		"asset":     t.Asset,
		"kind":      t.Label(),
		"quantity":  t.Quantity.String(),
		"timestamp": t.Timestamp,
	}).Debug("applying transaction")

	switch t.Kind {
	case transaction.Buy:
		l.buy(t)
	case transaction.Sell:
		l.sell(ctx, t)
	case transaction.Convert:
		return l.convert(ctx, t)
	case transaction.Send:
		l.send(ctx, t)
	case transaction.Receive:
		l.receive(t)
	case transaction.Income:
		l.earn(t)
	case transaction.Reward:
		l.reward(t)
	case transaction.Unknown:
		return NewUnrecognizedTransactionKindError(t)
	default:
		return NewUnrecognizedTransactionKindError(t)
	}

	return l.verify(t)
}

// verify checks that the position touched by t still holds exactly its
// balance in lots.
func (l *Ledger) verify(t transaction.Transaction) error {
	p, ok := l.positions[t.Asset]
	if !ok {
		return nil
	}
	if p.Consistent(l.config.QuantityPlaces) {
		return nil
	}
	return &InvariantViolationError{
		Asset:     p.Asset,
		Balance:   p.Balance,
		Queued:    p.Lots.TotalQuantity(),
		Timestamp: t.Timestamp,
		Source:    t.Source,
	}
}

// recordShortfall logs and keeps a disposal the lots could not cover.
func (l *Ledger) recordShortfall(ctx context.Context, t transaction.Transaction, m Match) {
	err := NewShortfallError(t, m)
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"asset":     err.Asset,
		"kind":      t.Label(),
		"requested": err.Requested.String(),
		"matched":   err.Matched.String(),
		"unmatched": err.Unmatched().String(),
		"timestamp": err.Timestamp,
	}).Warn("cannot account for disposal")
	l.shortfalls = append(l.shortfalls, err)
}

// position returns the position for asset, creating it on first use.
func (l *Ledger) position(asset string) *Position {
	p, ok := l.positions[asset]
	if !ok {
		p = newPosition(asset, l.config.Policy)
		l.positions[asset] = p
	}
	return p
}

// Position returns the position of an asset, if the asset has been seen.
func (l *Ledger) Position(asset string) (*Position, bool) {
	p, ok := l.positions[asset]
	return p, ok
}

// Positions returns every position, ordered by asset.
func (l *Ledger) Positions() []*Position {
	out := make([]*Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Position) int {
		return strings.Compare(a.Asset, b.Asset)
	})
	return out
}

// Sales returns the realized sales in the order they happened.
func (l *Ledger) Sales() []RealizedSale {
	return l.sales
}

// Income returns the income records in the order they happened.
func (l *Ledger) Income() []IncomeRecord {
	return l.income
}

// Shortfalls returns every disposal that could not be fully matched.
func (l *Ledger) Shortfalls() []*ShortfallError {
	return l.shortfalls
}

// quantity rounds a transaction quantity to the ledger's precision.
func (l *Ledger) quantity(q decimal.Decimal) decimal.Decimal {
	return q.Round(l.config.QuantityPlaces)
}
