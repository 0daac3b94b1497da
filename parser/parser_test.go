package parser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/cointax/transaction"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

const coinbaseExport = `"You can use this transaction report to inform your likely tax obligations."
Transactions
User,someone@example.com,5a1b

Timestamp,Transaction Type,Asset,Quantity Transacted,Spot Price Currency,Spot Price at Transaction,Subtotal,Total (inclusive of fees and/or spread),Fees and/or Spread,Notes
2021-01-04T10:00:00Z,Buy,BTC,0.5,USD,"$30,000.00","$15,000.00","$15,100.00",$100.00,Bought 0.5 BTC for $15100.00 USD
2021-02-01T11:30:00Z,Convert,BTC,0.1,USD,34000,3400,3400,0,"Converted 0.1 BTC to 2.5 ETH"
2021-03-01 08:15:00 UTC,Sell,ETH,-1.25,USD,1500,1875,-1850,25,
2021-03-02T09:00:00Z,Learning Reward,XLM,10,USD,0.4,4,4,,
`

func TestParseCoinbase(t *testing.T) {
	txns, err := Parse(context.Background(), "history.csv", strings.NewReader(coinbaseExport))
	assert.NoError(t, err)
	assert.Equal(t, 4, len(txns))

	b := txns[0]
	assert.Equal(t, time.Date(2021, 1, 4, 10, 0, 0, 0, time.UTC), b.Timestamp)
	assert.Equal(t, transaction.Buy, b.Kind)
	assert.Equal(t, "BTC", b.Asset)
	assertDecimal(t, "0.5", b.Quantity)
	assertDecimal(t, "30000", b.SpotPrice)
	assertDecimal(t, "15000", b.Subtotal)
	assertDecimal(t, "15100", b.Total)
	assertDecimal(t, "100", b.Fees)
	assert.Equal(t, "USD", b.Currency)
	assert.Equal(t, "history.csv:6", b.Source)

	c := txns[1]
	assert.Equal(t, transaction.Convert, c.Kind)
	assert.Equal(t, "Converted 0.1 BTC to 2.5 ETH", c.Note)

	s := txns[2]
	assert.Equal(t, transaction.Sell, s.Kind)
	assert.Equal(t, time.Date(2021, 3, 1, 8, 15, 0, 0, time.UTC), s.Timestamp)
	assertDecimal(t, "1.25", s.Quantity)
	assertDecimal(t, "1850", s.Total)

	r := txns[3]
	assert.Equal(t, transaction.Reward, r.Kind)
	assert.Equal(t, "Learning Reward", r.RawKind)
	assertDecimal(t, "0", r.Fees)
}

func TestParseCoinbaseProFills(t *testing.T) {
	input := `portfolio,trade id,product,side,created at,size,size unit,price,fee,total,price/fee/total unit
default,101,ETH-USD,BUY,2021-05-01T12:00:00.123Z,2,ETH,2500.00,5.00,-5005.00,USD
default,102,ETH-USD,SELL,2021-06-01T12:00:00.000Z,0.5,ETH,3000.00,1.50,1498.50,USD
`
	txns, err := Parse(context.Background(), "fills.csv", strings.NewReader(input))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(txns))

	assert.Equal(t, transaction.Buy, txns[0].Kind)
	assert.Equal(t, "ETH", txns[0].Asset)
	assertDecimal(t, "5000", txns[0].Subtotal)
	assertDecimal(t, "5005", txns[0].Total)
	assertDecimal(t, "5", txns[0].Fees)
	assert.Equal(t, time.Date(2021, 5, 1, 12, 0, 0, 123000000, time.UTC), txns[0].Timestamp)

	assert.Equal(t, transaction.Sell, txns[1].Kind)
	assertDecimal(t, "1500", txns[1].Subtotal)
	assert.Equal(t, "fills.csv:3", txns[1].Source)
}

func TestParseCoinbaseProAccount(t *testing.T) {
	input := `portfolio,type,time,amount,balance,amount/balance unit,transfer id,trade id,order id
default,deposit,2021-05-01T10:00:00.000Z,1000.00,1000.00,USD,abc,,
default,match,2021-05-01T12:00:00.123Z,2,2,ETH,,101,o1
default,fee,2021-05-01T12:00:00.123Z,-5,995,USD,,101,o1
default,withdrawal,2021-07-01T12:00:00.000Z,-1.5,0.5,ETH,xyz,,
`
	txns, err := Parse(context.Background(), "account.csv", strings.NewReader(input))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(txns))
	assert.Equal(t, transaction.Send, txns[0].Kind)
	assert.Equal(t, "ETH", txns[0].Asset)
	assertDecimal(t, "1.5", txns[0].Quantity)
	assert.Equal(t, "withdrawal", txns[0].RawKind)
}

func TestParseUnknownKindIsKept(t *testing.T) {
	input := `Timestamp,Transaction Type,Asset,Quantity Transacted,Spot Price Currency,Spot Price at Transaction,Subtotal,Total (inclusive of fees),Fees,Notes
2021-01-04T10:00:00Z,Airdrop,UNI,400,USD,3,,,,
`
	txns, err := ParseString(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, transaction.Unknown, txns[0].Kind)
	assert.Equal(t, "Airdrop", txns[0].RawKind)
}

func TestParseErrors(t *testing.T) {
	header := "Timestamp,Transaction Type,Asset,Quantity Transacted,Spot Price Currency,Spot Price at Transaction,Subtotal,Total (inclusive of fees),Fees,Notes\n"

	tests := []struct {
		name       string
		input      string
		wantLine   int
		wantColumn int
		wantMsg    string
		wantIs     error
	}{
		{
			name:     "unknown format",
			input:    "a,b,c\n1,2,3\n",
			wantLine: 1,
			wantMsg:  "data.csv:1: unrecognized export format",
			wantIs:   ErrUnknownFormat,
		},
		{
			name:       "bad timestamp",
			input:      header + "yesterday,Buy,BTC,1,USD,1,1,1,0,\n",
			wantLine:   2,
			wantColumn: 1,
			wantMsg:    `data.csv:2: invalid timestamp "yesterday"`,
		},
		{
			name:       "bad quantity",
			input:      header + "2021-01-04T10:00:00Z,Buy,BTC,lots,USD,1,1,1,0,\n",
			wantLine:   2,
			wantColumn: 30,
			wantMsg:    `data.csv:2: invalid number "lots"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), "data.csv", strings.NewReader(tt.input))
			assert.Error(t, err)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.wantLine, perr.GetPosition().Line)
			assert.Equal(t, "data.csv", perr.GetPosition().Filename)
			if tt.wantColumn != 0 {
				assert.Equal(t, tt.wantColumn, perr.GetPosition().Column)
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
			if tt.wantIs != nil {
				assert.True(t, errors.Is(err, tt.wantIs))
			}
		})
	}
}

func TestParseWithFormat(t *testing.T) {
	_, err := ParseString(context.Background(), coinbaseExport, WithFormat(FormatCoinbaseProFills))
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	txns, err := ParseString(context.Background(), coinbaseExport, WithFormat(FormatCoinbase))
	assert.NoError(t, err)
	assert.Equal(t, 4, len(txns))
}

func TestParseHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ParseString(ctx, coinbaseExport)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		header string
		want   Format
		ok     bool
	}{
		{"Timestamp,Transaction Type,Asset,Quantity Transacted,Notes", FormatCoinbase, true},
		{"\ufefftimestamp , transaction type,asset,quantity transacted", FormatCoinbase, true},
		{"portfolio,trade id,product,side,created at,size,size unit,price,fee,total,price/fee/total unit", FormatCoinbaseProFills, true},
		{"portfolio,type,time,amount,balance,amount/balance unit,transfer id,trade id,order id", FormatCoinbaseProAccount, true},
		{"Date,Description,Amount", FormatAuto, false},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			got, ok := Detect(strings.Split(tt.header, ","))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Coinbase-Pro-Fills")
	assert.NoError(t, err)
	assert.Equal(t, FormatCoinbaseProFills, f)

	f, err = ParseFormat("")
	assert.NoError(t, err)
	assert.Equal(t, FormatAuto, f)

	_, err = ParseFormat("kraken")
	assert.Error(t, err)
}

func TestInterner(t *testing.T) {
	i := NewInterner(4)
	a := i.Intern("BTC")
	b := i.Intern(strings.ToUpper("btc"))
	assert.Equal(t, a, b)
	assert.Equal(t, 1, i.Size())
}
