package algorand

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/cointax/telemetry"
)

// maxConcurrentAccounts bounds FetchAccounts; the rate limiter is shared anyway.
const maxConcurrentAccounts = 4

// FetchAll follows next-token until the account's history in [after, before)
// is exhausted. Zero times leave that side open. The result is ordered by
// block time, then by position within the round.
func (c *Client) FetchAll(ctx context.Context, address string, after, before time.Time) ([]AccountTransaction, error) {
	var all []AccountTransaction
	page := Page{After: after, Before: before}

	for {
		result, err := c.Transactions(ctx, address, page)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", address, err)
		}
		all = append(all, result.Transactions...)

		if result.NextToken == "" || len(result.Transactions) == 0 {
			break
		}
		page.Next = result.NextToken
	}

	SortByRound(all)
	return all, nil
}

// FetchYear fetches every transaction confirmed during the calendar year (UTC).
func (c *Client) FetchYear(ctx context.Context, address string, year int) ([]AccountTransaction, error) {
	after := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return c.FetchAll(ctx, address, after, after.AddDate(1, 0, 0))
}

// FetchAccounts fetches the year of several accounts concurrently. The first
// failure cancels the remaining fetches.
func (c *Client) FetchAccounts(ctx context.Context, addresses []string, year int) (map[string][]AccountTransaction, error) {
	timer := telemetry.StartTimer(ctx, "algorand.fetch")
	defer timer.End()

	var mu sync.Mutex
	out := make(map[string][]AccountTransaction, len(addresses))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAccounts)

	for _, address := range addresses {
		g.Go(func() error {
			txns, err := c.FetchYear(ctx, address, year)
			if err != nil {
				return err
			}
			mu.Lock()
			out[address] = txns
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SortByRound orders transactions by block time, keeping indexer order
// within a round.
func SortByRound(txns []AccountTransaction) {
	slices.SortStableFunc(txns, func(a, b AccountTransaction) int {
		if a.RoundTime != b.RoundTime {
			if a.RoundTime < b.RoundTime {
				return -1
			}
			return 1
		}
		switch {
		case a.IntraRoundOffset < b.IntraRoundOffset:
			return -1
		case a.IntraRoundOffset > b.IntraRoundOffset:
			return 1
		}
		return 0
	})
}
