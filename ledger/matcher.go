package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/cointax/transaction"
)

// Disposal is the part of a transaction the matcher needs.
type Disposal struct {
	Kind      transaction.Kind
	Quantity  decimal.Decimal
	SpotPrice decimal.Decimal
	Subtotal  decimal.Decimal
	Fees      decimal.Decimal
}

// DisposalOf extracts the matching inputs from a transaction.
func DisposalOf(t transaction.Transaction) Disposal {
	return Disposal{
		Kind:      t.Kind,
		Quantity:  t.Quantity,
		SpotPrice: t.SpotPrice,
		Subtotal:  t.Subtotal,
		Fees:      t.Fees,
	}
}

// Match is the outcome of matching one disposal against a queue.
type Match struct {
	CostBasis decimal.Decimal
	Matched   decimal.Decimal
	Unmatched decimal.Decimal

	// Slippage is the quantity written off against the disposal's fees
	// rather than matched to a lot. It is counted in Matched.
	Slippage decimal.Decimal
}

// Complete reports whether the whole disposal was accounted for.
func (m Match) Complete() bool {
	return !m.Unmatched.IsPositive()
}

// Matcher consumes lots from a queue to price disposals.
type Matcher struct {
	config *Config
}

// NewMatcher creates a matcher. A nil config uses NewConfig.
func NewMatcher(cfg *Config) *Matcher {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Matcher{config: cfg}
}

// Match consumes lots from q to cover d.Quantity and returns the cost basis
// of the consumed quantity together with any shortfall. Lots are consumed in
// the queue's policy order; the lot that straddles the end of the disposal is
// shrunk in place.
func (m *Matcher) Match(q *LotQueue, d Disposal) Match {
	places := m.config.QuantityPlaces
	quantity := d.Quantity.Round(places)

	if !quantity.IsPositive() {
		return Match{}
	}

	if m.config.IncomeShortCircuit && d.Kind.IsCostless() {
		return Match{CostBasis: d.Subtotal, Matched: quantity}
	}

	if q.IsEmpty() {
		return Match{Unmatched: quantity}
	}

	if q.Policy() == WeightedAverage {
		return m.matchAverage(q, d, quantity)
	}

	basis := decimal.Zero
	remaining := quantity

	for remaining.IsPositive() {
		lot, ok := q.Peek()
		if !ok {
			if m.coveredByFees(d, remaining) {
				return Match{
					CostBasis: basis.Add(d.Subtotal),
					Matched:   quantity,
					Slippage:  remaining,
				}
			}
			break
		}

		if lot.Quantity.LessThanOrEqual(remaining) {
			if _, err := q.Consume(); err != nil {
				break
			}
			basis = basis.Add(lot.CostBasis)
			remaining = remaining.Sub(lot.Quantity).Round(places)
			continue
		}

		if err := q.Replace(lot.reduce(remaining, places)); err != nil {
			break
		}
		basis = basis.Add(remaining.Mul(lot.PricePerUnit)).Sub(d.Fees)
		remaining = decimal.Zero
	}

	return Match{
		CostBasis: basis,
		Matched:   quantity.Sub(remaining),
		Unmatched: remaining,
	}
}

// matchAverage prices the disposal at the blended price of all held lots and
// applies a single reduction to the queue.
func (m *Matcher) matchAverage(q *LotQueue, d Disposal, quantity decimal.Decimal) Match {
	places := m.config.QuantityPlaces

	avg := q.AveragePrice()
	removed := q.ReduceAverage(quantity, places)
	basis := removed.Mul(avg)
	remaining := quantity.Sub(removed).Round(places)

	if remaining.IsPositive() && m.coveredByFees(d, remaining) {
		return Match{
			CostBasis: basis.Add(d.Subtotal),
			Matched:   quantity,
			Slippage:  remaining,
		}
	}

	return Match{
		CostBasis: basis,
		Matched:   removed,
		Unmatched: remaining,
	}
}

// coveredByFees reports whether an unmatched remainder is small enough to be
// exchange slippage: the fees paid are worth at least the remainder at spot.
func (m *Matcher) coveredByFees(d Disposal, remaining decimal.Decimal) bool {
	if !m.config.FeeSlippage || !d.Fees.IsPositive() {
		return false
	}
	return d.Fees.GreaterThanOrEqual(remaining.Mul(d.SpotPrice))
}
