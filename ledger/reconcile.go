package ledger

import (
	"context"

	"github.com/robinvdvleuten/cointax/telemetry"
	"github.com/robinvdvleuten/cointax/transaction"
)

// Result is the outcome of one reconciliation run.
type Result struct {
	Sales      []RealizedSale
	Income     []IncomeRecord
	Shortfalls []*ShortfallError
	Positions  []*Position
}

// Reconcile replays the full history through a fresh ledger. Transactions are
// ordered by timestamp with ties kept in input order; txns itself is left
// untouched. A nil cfg is taken from ctx.
//
// Shortfalls do not fail the run. When a fatal error stops it, the partial
// result is returned together with a *ReconcileErrors.
func Reconcile(ctx context.Context, txns transaction.Transactions, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = ConfigFromContext(ctx)
	}

	timer := telemetry.StartTimer(ctx, "ledger.reconcile")
	defer timer.End()

	sortTimer := timer.Child("ledger.sort")
	sorted := txns.Sorted()
	sortTimer.End()

	l := New(cfg)
	err := l.Process(ctx, sorted)

	result := &Result{
		Sales:      l.Sales(),
		Income:     l.Income(),
		Shortfalls: l.Shortfalls(),
		Positions:  l.Positions(),
	}
	if err != nil {
		return result, &ReconcileErrors{Fatal: err, Shortfalls: result.Shortfalls}
	}
	return result, nil
}

// Position returns the final position of an asset.
func (r *Result) Position(asset string) (*Position, bool) {
	for _, p := range r.Positions {
		if p.Asset == asset {
			return p, true
		}
	}
	return nil, false
}
