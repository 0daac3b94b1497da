package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the running state of one asset during a run.
type Position struct {
	Asset        string
	Balance      decimal.Decimal
	LastAcquired time.Time
	LastPrice    decimal.Decimal

	// Lots holds the acquisitions a sale or send can consume.
	Lots *LotQueue

	// WithdrawalLots holds the basis of quantities sent out of the account,
	// so a later receive of the same asset can recover it.
	WithdrawalLots *LotQueue
}

func newPosition(asset string, policy Policy) *Position {
	return &Position{
		Asset:          asset,
		Lots:           NewLotQueue(policy),
		WithdrawalLots: NewLotQueue(policy),
	}
}

// credit raises the balance.
func (p *Position) credit(qty decimal.Decimal, places int32) {
	p.Balance = p.Balance.Add(qty).Round(places)
}

// debit lowers the balance. With clamp set the balance stops at zero.
func (p *Position) debit(qty decimal.Decimal, places int32, clamp bool) {
	p.Balance = p.Balance.Sub(qty).Round(places)
	if clamp && p.Balance.IsNegative() {
		p.Balance = decimal.Zero
	}
}

// acquired records the date and price of the latest acquisition.
func (p *Position) acquired(ts time.Time, price decimal.Decimal) {
	p.LastAcquired = ts
	p.LastPrice = price
}

// Consistent reports whether the balance equals the quantity held in lots.
func (p *Position) Consistent(places int32) bool {
	return p.Balance.Equal(p.Lots.TotalQuantity().Round(places))
}

// CostBasis returns the stored basis of all open lots.
func (p *Position) CostBasis() decimal.Decimal {
	return p.Lots.TotalCost()
}
