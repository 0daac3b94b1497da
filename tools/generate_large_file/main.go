// Large Coinbase Export Generator
//
// This tool generates a large Coinbase transaction history CSV for performance
// testing and profiling. Rows mix buys, sells, sends, receives, rewards and
// converts across several assets, and disposals never exceed what was bought,
// so the whole file reconciles without shortfalls.
//
// Usage:
//
//	go run main.go > large.csv
//	go run main.go 20000000 > large.csv  # Specify target size in bytes
package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTargetSize = 10 * 1024 * 1024 // 10MB
)

var (
	header = []string{
		"Timestamp", "Transaction Type", "Asset", "Quantity Transacted",
		"Spot Price Currency", "Spot Price at Transaction", "Subtotal",
		"Total (inclusive of fees and/or spread)", "Fees and/or Spread", "Notes",
	}

	// Starting spot prices; each row moves the price a few percent.
	prices = map[string]float64{
		"BTC":  9000,
		"ETH":  200,
		"LTC":  45,
		"ALGO": 0.25,
		"XLM":  0.06,
	}

	assets       = []string{"BTC", "ETH", "LTC", "ALGO"}
	rewardAssets = []string{"XLM", "ALGO", "ETH"}
	rewardLabels = []string{"Coinbase Earn", "Rewards Income", "Learning Reward", "Staking Income"}
)

type generator struct {
	w        *csv.Writer
	date     time.Time
	holdings map[string]decimal.Decimal
	withdraw map[string]decimal.Decimal
	rows     int
}

func main() {
	targetSize := defaultTargetSize
	if len(os.Args) > 1 {
		if size, err := strconv.Atoi(os.Args[1]); err == nil {
			targetSize = size
		}
	}

	out := &countingWriter{w: bufio.NewWriter(os.Stdout)}
	g := &generator{
		w:        csv.NewWriter(out),
		date:     time.Date(2019, 1, 1, 9, 0, 0, 0, time.UTC),
		holdings: make(map[string]decimal.Decimal),
		withdraw: make(map[string]decimal.Decimal),
	}

	g.write(header)

	for out.n < targetSize {
		// Mix different kinds of rows
		switch rand.Intn(10) {
		case 0, 1, 2: // 30% - Buy
			g.buy()
		case 3, 4: // 20% - Sell
			g.sell()
		case 5: // 10% - Send
			g.send()
		case 6: // 10% - Receive
			g.receive()
		case 7, 8: // 20% - Reward
			g.reward()
		case 9: // 10% - Convert
			g.convert()
		}

		// Advance by one to 36 hours
		g.date = g.date.Add(time.Duration(rand.Intn(36)+1) * time.Hour)
		g.w.Flush()
	}

	g.w.Flush()
	if err := g.w.Error(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := out.w.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nGenerated %d bytes with %d transactions\n", out.n, g.rows)
}

func (g *generator) write(record []string) {
	if err := g.w.Write(record); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (g *generator) row(label, asset string, qty decimal.Decimal, fees decimal.Decimal, note string) {
	spot := g.spot(asset)
	subtotal := spot.Mul(qty).Round(2)
	total := subtotal.Add(fees)

	g.write([]string{
		g.date.Format(time.RFC3339),
		label,
		asset,
		qty.String(),
		"USD",
		spot.String(),
		subtotal.StringFixed(2),
		total.StringFixed(2),
		fees.StringFixed(2),
		note,
	})
	g.rows++
}

// spot nudges the asset's price by up to five percent and returns it.
func (g *generator) spot(asset string) decimal.Decimal {
	prices[asset] *= 1 + (rand.Float64()-0.5)/10
	return decimal.NewFromFloat(prices[asset]).Round(4)
}

func (g *generator) buy() {
	asset := assets[rand.Intn(len(assets))]
	qty := randQuantity(asset)
	fees := decimal.NewFromFloat(rand.Float64() * 5).Round(2)

	g.row("Buy", asset, qty, fees, fmt.Sprintf("Bought %s %s for USD", qty, asset))
	g.holdings[asset] = g.holdings[asset].Add(qty)
}

func (g *generator) sell() {
	asset, qty, ok := g.disposable()
	if !ok {
		g.buy()
		return
	}
	fees := decimal.NewFromFloat(rand.Float64() * 5).Round(2)

	g.row("Sell", asset, qty, fees, fmt.Sprintf("Sold %s %s for USD", qty, asset))
	g.holdings[asset] = g.holdings[asset].Sub(qty)
}

func (g *generator) send() {
	asset, qty, ok := g.disposable()
	if !ok {
		g.buy()
		return
	}

	g.row("Send", asset, qty, decimal.Zero, fmt.Sprintf("Sent %s %s to external wallet", qty, asset))
	g.holdings[asset] = g.holdings[asset].Sub(qty)
	g.withdraw[asset] = g.withdraw[asset].Add(qty)
}

// receive returns part of an earlier send, or brings in a small amount of
// untracked funds when nothing was sent.
func (g *generator) receive() {
	asset := assets[rand.Intn(len(assets))]
	qty := g.withdraw[asset]
	if qty.IsPositive() {
		qty = qty.Mul(decimal.NewFromFloat(0.5 + rand.Float64()/2)).Round(6)
		g.withdraw[asset] = g.withdraw[asset].Sub(qty)
	} else {
		qty = randQuantity(asset).Div(decimal.NewFromInt(10)).Round(6)
	}
	if !qty.IsPositive() {
		return
	}

	g.row("Receive", asset, qty, decimal.Zero, fmt.Sprintf("Received %s %s from external wallet", qty, asset))
	g.holdings[asset] = g.holdings[asset].Add(qty)
}

func (g *generator) reward() {
	asset := rewardAssets[rand.Intn(len(rewardAssets))]
	label := rewardLabels[rand.Intn(len(rewardLabels))]
	qty := randQuantity(asset).Div(decimal.NewFromInt(20)).Round(6)
	if !qty.IsPositive() {
		return
	}

	g.row(label, asset, qty, decimal.Zero, fmt.Sprintf("Received %s %s from Coinbase", qty, asset))
	g.holdings[asset] = g.holdings[asset].Add(qty)
}

func (g *generator) convert() {
	from, qty, ok := g.disposable()
	if !ok {
		g.buy()
		return
	}
	to := assets[rand.Intn(len(assets))]
	if to == from {
		g.sell()
		return
	}

	fromPrice := decimal.NewFromFloat(prices[from])
	toPrice := decimal.NewFromFloat(prices[to])
	received := qty.Mul(fromPrice).Div(toPrice).Round(6)
	if !received.IsPositive() {
		return
	}

	note := fmt.Sprintf("Converted %s %s to %s %s", qty, from, received, to)
	g.row("Convert", from, qty, decimal.NewFromFloat(rand.Float64()*3).Round(2), note)
	g.holdings[from] = g.holdings[from].Sub(qty)
	g.holdings[to] = g.holdings[to].Add(received)
}

// disposable picks an asset with a balance and a quantity of at most half of
// it.
func (g *generator) disposable() (string, decimal.Decimal, bool) {
	start := rand.Intn(len(assets))
	for i := range assets {
		asset := assets[(start+i)%len(assets)]
		held := g.holdings[asset]
		if !held.IsPositive() {
			continue
		}
		qty := held.Mul(decimal.NewFromFloat(rand.Float64() / 2)).Round(6)
		if qty.IsPositive() {
			return asset, qty, true
		}
	}
	return "", decimal.Zero, false
}

// randQuantity returns roughly 50 to 2,000 USD worth of asset.
func randQuantity(asset string) decimal.Decimal {
	usd := 50 + rand.Float64()*1950
	return decimal.NewFromFloat(usd / prices[asset]).Round(6)
}

type countingWriter struct {
	w *bufio.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
