package algorand

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/robinvdvleuten/cointax/logging"
	"github.com/robinvdvleuten/cointax/transaction"
)

// DefaultAsset is the symbol Algos are booked under.
const DefaultAsset = "ALGO"

// RewardsLabel is the raw kind given to participation rewards.
const RewardsLabel = "Rewards Income"

func algos(micro uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(micro)).Shift(-6)
}

// ToTransactions converts the indexer history of owner into ledger
// transactions. No price feed is consulted, so spot prices are zero.
//
// Payments become a Send or Receive of the net Algo movement for owner, with
// fees folded into the quantity. Rewards credited to owner on any transaction
// become income. Asset transfers and application calls are otherwise skipped.
func ToTransactions(ctx context.Context, owner, asset string, txns []AccountTransaction) transaction.Transactions {
	if asset == "" {
		asset = DefaultAsset
	}
	log := logging.FromContext(ctx).WithField("address", owner)

	var out transaction.Transactions
	for _, t := range txns {
		source := fmt.Sprintf("algorand:%s", t.ID)

		if rewards := t.rewardsFor(owner); rewards > 0 {
			out = append(out, transaction.New(t.Time(), transaction.Income, asset, algos(rewards),
				transaction.WithRawKind(RewardsLabel),
				transaction.WithSource(source),
			))
		}

		if t.Type != TypePayment || t.Payment == nil {
			log.WithFields(logrus.Fields{"id": t.ID, "type": t.Type}).Debug("skipping transaction without payment")
			continue
		}

		net := t.netPayment(owner)
		switch {
		case net.IsNegative():
			out = append(out, transaction.New(t.Time(), transaction.Send, asset, net.Abs(),
				transaction.WithNote(t.Payment.Receiver),
				transaction.WithSource(source),
			))
		case net.IsPositive():
			out = append(out, transaction.New(t.Time(), transaction.Receive, asset, net,
				transaction.WithNote(t.Sender),
				transaction.WithSource(source),
			))
		}
	}
	return out
}

// rewardsFor returns the participation rewards credited to owner.
func (t AccountTransaction) rewardsFor(owner string) uint64 {
	var total uint64
	if t.Sender == owner {
		total += t.SenderRewards
	}
	if t.Receiver() == owner {
		total += t.ReceiverRewards
	}
	if t.Payment != nil && t.Payment.CloseRemainderTo == owner {
		total += t.CloseRewards
	}
	return total
}

// netPayment returns the change in owner's Algo balance caused by a payment.
// The fee is part of what a sender loses, so it is not booked separately.
func (t AccountTransaction) netPayment(owner string) decimal.Decimal {
	p := t.Payment
	var in, out uint64

	if t.Sender == owner {
		out += p.Amount + t.Fee + t.ClosingAmount
	}
	if p.Receiver == owner {
		in += p.Amount
	}
	if p.CloseRemainderTo != "" && p.CloseRemainderTo == owner {
		in += t.ClosingAmount
	}

	return algos(in).Sub(algos(out))
}
