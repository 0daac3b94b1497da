package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/cointax/logging"
	"github.com/robinvdvleuten/cointax/transaction"
)

func (l *Ledger) buy(t transaction.Transaction) {
	qty := l.quantity(t.Quantity)
	if !qty.IsPositive() {
		return
	}

	cost := t.Subtotal
	if cost.IsZero() {
		cost = t.SpotPrice.Mul(qty)
	}

	p := l.position(t.Asset)
	lot := NewLotWithCost(t.SpotPrice, qty, cost)
	lot.Acquired = t.Timestamp
	p.Lots.Enqueue(lot)
	p.credit(qty, l.config.QuantityPlaces)
	p.acquired(t.Timestamp, t.SpotPrice)
}

func (l *Ledger) sell(ctx context.Context, t transaction.Transaction) {
	qty := l.quantity(t.Quantity)
	if !qty.IsPositive() {
		logging.FromContext(ctx).WithField("asset", t.Asset).Debug("ignoring sale without quantity")
		return
	}

	p := l.position(t.Asset)
	m := l.matcher.Match(p.Lots, DisposalOf(t))
	if !m.Complete() {
		l.recordShortfall(ctx, t, m)
		p.debit(qty, l.config.QuantityPlaces, true)
		return
	}
	p.debit(qty, l.config.QuantityPlaces, m.Slippage.IsPositive())

	places := l.config.CurrencyPlaces
	basis := m.CostBasis.Round(places)
	l.sales = append(l.sales, RealizedSale{
		DateSold:          t.Timestamp,
		LastAcquired:      p.LastAcquired,
		LastPurchasePrice: p.LastPrice.Round(3),
		Quantity:          qty,
		Asset:             t.Asset,
		SpotPrice:         t.SpotPrice,
		OriginalCost:      t.Subtotal,
		Currency:          t.Currency,
		CostBasis:         basis,
		Total:             t.Total,
		Gains:             t.Total.Sub(basis).Round(places),
		Fees:              t.Fees,
	})
}

// convert splits the transaction into its sell and buy legs and applies them
// in that order.
func (l *Ledger) convert(ctx context.Context, t transaction.Transaction) error {
	sell, buy, err := t.SplitConvert()
	if err != nil {
		return err
	}
	if err := l.Apply(ctx, sell); err != nil {
		return err
	}
	return l.Apply(ctx, buy)
}

// send moves held lots into the withdrawal queue so a later receive can
// recover their basis.
func (l *Ledger) send(ctx context.Context, t transaction.Transaction) {
	qty := l.quantity(t.Quantity)
	if !qty.IsPositive() {
		return
	}

	p := l.position(t.Asset)
	m := l.matcher.Match(p.Lots, DisposalOf(t))

	if m.Matched.IsPositive() {
		basis := decimal.Max(m.CostBasis, decimal.Zero)
		lot := NewLotWithCost(basis.Div(m.Matched), m.Matched, basis)
		lot.Acquired = t.Timestamp
		p.WithdrawalLots.Enqueue(lot)
	}

	if !m.Complete() {
		l.recordShortfall(ctx, t, m)
	}
	p.debit(qty, l.config.QuantityPlaces, !m.Complete() || m.Slippage.IsPositive())
}

// receive matches an incoming transfer against earlier withdrawals. Whatever
// cannot be traced back to a withdrawal arrives with zero cost.
func (l *Ledger) receive(t transaction.Transaction) {
	qty := l.quantity(t.Quantity)
	if !qty.IsPositive() {
		return
	}

	p := l.position(t.Asset)
	m := l.matcher.Match(p.WithdrawalLots, Disposal{
		Kind:      t.Kind,
		Quantity:  qty,
		SpotPrice: t.SpotPrice,
		Subtotal:  t.Subtotal,
	})

	if m.Matched.IsPositive() {
		lot := NewLotWithCost(m.CostBasis.Div(m.Matched), m.Matched, m.CostBasis)
		lot.Acquired = t.Timestamp
		p.Lots.Enqueue(lot)
	}
	if m.Unmatched.IsPositive() {
		lot := NewLotWithCost(t.SpotPrice, m.Unmatched, decimal.Zero)
		lot.Acquired = t.Timestamp
		p.Lots.Enqueue(lot)
	}

	p.credit(qty, l.config.QuantityPlaces)
	p.LastAcquired = t.Timestamp
}

// earn records income that carries no cost basis.
func (l *Ledger) earn(t transaction.Transaction) {
	qty := l.quantity(t.Quantity)
	if !qty.IsPositive() {
		return
	}

	p := l.position(t.Asset)
	lot := NewLotWithCost(t.SpotPrice, qty, decimal.Zero)
	lot.Acquired = t.Timestamp
	p.Lots.Enqueue(lot)
	p.credit(qty, l.config.QuantityPlaces)
	l.recordIncome(t, qty)
}

// reward takes the receive path, where rewards short-circuit to their stated
// subtotal, and records the receipt as income.
func (l *Ledger) reward(t transaction.Transaction) {
	qty := l.quantity(t.Quantity)
	if !qty.IsPositive() {
		return
	}
	l.receive(t)
	l.recordIncome(t, qty)
}

func (l *Ledger) recordIncome(t transaction.Transaction, qty decimal.Decimal) {
	l.income = append(l.income, IncomeRecord{
		DateReceived: t.Timestamp,
		Quantity:     qty,
		Asset:        t.Asset,
		SpotPrice:    t.SpotPrice,
		Currency:     t.Currency,
		Total:        t.Subtotal,
		Fees:         t.Fees,
	})
}
