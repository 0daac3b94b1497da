package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/robinvdvleuten/cointax/logging"
	"github.com/robinvdvleuten/cointax/transaction"
)

func process(t *testing.T, cfg *Config, txns ...transaction.Transaction) (*Ledger, error) {
	t.Helper()
	l := New(cfg)
	return l, l.Process(context.Background(), txns)
}

func TestLedgerBuyAndSell(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		wantBasis string
		wantGains string
	}{
		{"FIFO", FIFO, "250", "350"},
		{"LIFO", LIFO, "350", "250"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Policy = tt.policy

			l, err := process(t, cfg,
				buy(1, "BTC", "1", "100"),
				buy(2, "BTC", "1", "300"),
				sell(3, "BTC", "1.5", "400"),
			)
			assert.NoError(t, err)

			sales := l.Sales()
			assert.Equal(t, 1, len(sales))
			assertDecimal(t, tt.wantBasis, sales[0].CostBasis)
			assertDecimal(t, "600", sales[0].Total)
			assertDecimal(t, tt.wantGains, sales[0].Gains)
			assert.Equal(t, day(2), sales[0].LastAcquired)
			assertDecimal(t, "300", sales[0].LastPurchasePrice)
			assert.Equal(t, "USD", sales[0].Currency)

			p, ok := l.Position("BTC")
			assert.True(t, ok)
			assertDecimal(t, "0.5", p.Balance)
			assert.Equal(t, 1, p.Lots.Len())
		})
	}
}

func TestLedgerBuyWithoutSubtotalUsesSpot(t *testing.T) {
	txn := transaction.New(day(1), transaction.Buy, "ETH", dec("2"),
		transaction.WithSpotPrice(dec("50")),
	)
	l, err := process(t, nil, txn)
	assert.NoError(t, err)

	p, _ := l.Position("ETH")
	assertDecimal(t, "100", p.CostBasis())
}

func TestLedgerConservation(t *testing.T) {
	l := New(nil)
	ctx := context.Background()

	assert.NoError(t, l.Apply(ctx, buy(1, "BTC", "1.25", "100")))
	p, _ := l.Position("BTC")
	assertDecimal(t, "1.25", p.Balance)

	assert.NoError(t, l.Apply(ctx, buy(2, "BTC", "0.75", "200")))
	assertDecimal(t, "2", p.Balance)

	assert.NoError(t, l.Apply(ctx, sell(3, "BTC", "0.3", "250")))
	assertDecimal(t, "1.7", p.Balance)
	assertDecimal(t, "1.7", p.Lots.TotalQuantity())
}

func TestLedgerShortfallSkipsSale(t *testing.T) {
	log, hook := test.NewNullLogger()
	ctx := logging.WithLogger(context.Background(), log)

	l := New(nil)
	err := l.Process(ctx, transaction.Transactions{
		buy(1, "BTC", "1", "100"),
		buy(2, "BTC", "1", "300"),
		sell(3, "BTC", "3", "400"),
	})
	assert.NoError(t, err)

	assert.Equal(t, 0, len(l.Sales()))

	shortfalls := l.Shortfalls()
	assert.Equal(t, 1, len(shortfalls))
	assertDecimal(t, "1", shortfalls[0].Unmatched())
	assertDecimal(t, "2", shortfalls[0].Matched)
	assertDecimal(t, "3", shortfalls[0].Requested)
	assert.True(t, errors.Is(shortfalls[0], ErrEmptyQueue))

	p, _ := l.Position("BTC")
	assertDecimal(t, "0", p.Balance)
	assert.True(t, p.Lots.IsEmpty())

	entry := hook.LastEntry()
	assert.NotZero(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "BTC", entry.Data["asset"])
	assert.Equal(t, "3", entry.Data["requested"])
	assert.Equal(t, "2", entry.Data["matched"])
	assert.Equal(t, "1", entry.Data["unmatched"])
}

func TestLedgerSellWithoutQuantityIsIgnored(t *testing.T) {
	l, err := process(t, nil,
		buy(1, "BTC", "1", "100"),
		sell(2, "BTC", "0", "400"),
	)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(l.Sales()))
	assert.Equal(t, 0, len(l.Shortfalls()))

	p, _ := l.Position("BTC")
	assertDecimal(t, "1", p.Balance)
}

func TestLedgerSendAndReceiveRecoversBasis(t *testing.T) {
	send := transaction.New(day(2), transaction.Send, "BTC", dec("1"),
		transaction.WithSpotPrice(dec("200")))
	receive := transaction.New(day(3), transaction.Receive, "BTC", dec("1"),
		transaction.WithSpotPrice(dec("250")))

	l, err := process(t, nil,
		buy(1, "BTC", "2", "100"),
		send,
		receive,
		sell(4, "BTC", "2", "250"),
	)
	assert.NoError(t, err)

	sales := l.Sales()
	assert.Equal(t, 1, len(sales))
	assertDecimal(t, "200", sales[0].CostBasis)
	assertDecimal(t, "300", sales[0].Gains)
	assert.Equal(t, day(3), sales[0].LastAcquired)

	p, _ := l.Position("BTC")
	assert.True(t, p.WithdrawalLots.IsEmpty())
	assertDecimal(t, "0", p.Balance)
}

func TestLedgerSendShortfallClampsBalance(t *testing.T) {
	send := transaction.New(day(2), transaction.Send, "ALGO", dec("5"))

	l, err := process(t, nil, buy(1, "ALGO", "2", "1"), send)
	assert.NoError(t, err)

	p, _ := l.Position("ALGO")
	assertDecimal(t, "0", p.Balance)
	assertDecimal(t, "2", p.WithdrawalLots.TotalQuantity())
	assertDecimal(t, "2", p.WithdrawalLots.TotalCost())
	assert.Equal(t, 1, len(l.Shortfalls()))
	assert.Equal(t, transaction.Send, l.Shortfalls()[0].Kind)
}

func TestLedgerReceiveFromOutsideHasNoCost(t *testing.T) {
	receive := transaction.New(day(1), transaction.Receive, "ETH", dec("1"),
		transaction.WithSpotPrice(dec("50")))

	l, err := process(t, nil, receive, sell(2, "ETH", "1", "60"))
	assert.NoError(t, err)

	sales := l.Sales()
	assert.Equal(t, 1, len(sales))
	assertDecimal(t, "0", sales[0].CostBasis)
	assertDecimal(t, "60", sales[0].Gains)
}

func TestLedgerIncome(t *testing.T) {
	earn := transaction.New(day(1), transaction.Income, "ALGO", dec("1"),
		transaction.WithRawKind("Coinbase Earn"),
		transaction.WithSpotPrice(dec("2")),
		transaction.WithSubtotal(dec("2")),
		transaction.WithFees(dec("0.1")),
	)

	l, err := process(t, nil, earn, sell(2, "ALGO", "1", "3"))
	assert.NoError(t, err)

	income := l.Income()
	assert.Equal(t, 1, len(income))
	assertDecimal(t, "2", income[0].Total)
	assertDecimal(t, "0.1", income[0].Fees)
	assert.Equal(t, day(1), income[0].DateReceived)

	sales := l.Sales()
	assert.Equal(t, 1, len(sales))
	assertDecimal(t, "3", sales[0].Gains)
	assert.True(t, sales[0].LastAcquired.IsZero(), "income is not an acquisition date")
}

func TestLedgerReward(t *testing.T) {
	reward := transaction.New(day(1), transaction.Reward, "XLM", dec("2"),
		transaction.WithRawKind("Learning Reward"),
		transaction.WithSpotPrice(dec("5")),
		transaction.WithSubtotal(dec("10")),
	)

	t.Run("uses stated subtotal as basis", func(t *testing.T) {
		l, err := process(t, nil, reward, sell(2, "XLM", "2", "8"))
		assert.NoError(t, err)

		assert.Equal(t, 1, len(l.Income()))
		assertDecimal(t, "10", l.Income()[0].Total)

		sales := l.Sales()
		assert.Equal(t, 1, len(sales))
		assertDecimal(t, "10", sales[0].CostBasis)
		assertDecimal(t, "6", sales[0].Gains)
	})

	t.Run("without short-circuit arrives at zero cost", func(t *testing.T) {
		cfg := NewConfig()
		cfg.IncomeShortCircuit = false
		l, err := process(t, cfg, reward, sell(2, "XLM", "2", "8"))
		assert.NoError(t, err)

		sales := l.Sales()
		assert.Equal(t, 1, len(sales))
		assertDecimal(t, "0", sales[0].CostBasis)
		assertDecimal(t, "16", sales[0].Gains)
	})
}

func TestLedgerConvert(t *testing.T) {
	convert := transaction.New(day(2), transaction.Convert, "ETH", dec("1"),
		transaction.WithSpotPrice(dec("1500")),
		transaction.WithSubtotal(dec("1500")),
		transaction.WithTotal(dec("1500")),
		transaction.WithNote("Converted 1 ETH to 0.05 BTC"),
	)

	l, err := process(t, nil, buy(1, "ETH", "1", "1000"), convert)
	assert.NoError(t, err)

	sales := l.Sales()
	assert.Equal(t, 1, len(sales))
	assert.Equal(t, "ETH", sales[0].Asset)
	assertDecimal(t, "500", sales[0].Gains)

	eth, _ := l.Position("ETH")
	assertDecimal(t, "0", eth.Balance)

	btc, ok := l.Position("BTC")
	assert.True(t, ok)
	assertDecimal(t, "0.05", btc.Balance)
	assertDecimal(t, "30000", btc.LastPrice)
	assertDecimal(t, "1500", btc.CostBasis())
}

func TestLedgerFatalErrors(t *testing.T) {
	t.Run("unrecognized kind", func(t *testing.T) {
		unknown := transaction.New(day(1), transaction.Unknown, "BTC", dec("1"),
			transaction.WithRawKind("Airdrop"),
			transaction.WithSource("history.csv:4"))

		l, err := process(t, nil, unknown, buy(2, "BTC", "1", "100"))
		var kindErr *UnrecognizedTransactionKindError
		assert.True(t, errors.As(err, &kindErr))
		assert.Equal(t, "Airdrop", kindErr.Label)
		assert.Equal(t, `history.csv:4: Unrecognized transaction kind "Airdrop"`, err.Error())

		_, ok := l.Position("BTC")
		assert.False(t, ok, "processing stops at the fatal transaction")
	})

	t.Run("malformed convert note", func(t *testing.T) {
		convert := transaction.New(day(1), transaction.Convert, "ETH", dec("1"),
			transaction.WithNote("Swapped some coins"))

		_, err := process(t, nil, convert)
		var noteErr *transaction.MalformedConvertNoteError
		assert.True(t, errors.As(err, &noteErr))
		assert.Equal(t, "Swapped some coins", noteErr.GetNote())
	})
}

func TestLedgerPositionsSorted(t *testing.T) {
	l, err := process(t, nil,
		buy(1, "SOL", "1", "10"),
		buy(1, "BTC", "1", "10"),
		buy(1, "ETH", "1", "10"),
	)
	assert.NoError(t, err)

	var assets []string
	for _, p := range l.Positions() {
		assets = append(assets, p.Asset)
	}
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, assets)
}

func TestLedgerVerifyDetectsDrift(t *testing.T) {
	l := New(nil)
	assert.NoError(t, l.Apply(context.Background(), buy(1, "BTC", "1", "100")))

	p, _ := l.Position("BTC")
	p.Balance = dec("5")

	err := l.verify(buy(2, "BTC", "1", "100"))
	var invErr *InvariantViolationError
	assert.True(t, errors.As(err, &invErr))
	assertDecimal(t, "5", invErr.Balance)
	assertDecimal(t, "1", invErr.Queued)
}

func TestLedgerProcessHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(nil)
	err := l.Process(ctx, transaction.Transactions{buy(1, "BTC", "1", "100")})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, len(l.Positions()))
}
