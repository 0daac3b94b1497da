// Package algorand reads account history from an Algorand indexer and turns
// it into transactions the ledger can replay.
//
// Histories are fetched once, stored as JSON lines, and converted on load:
//
//	client := algorand.NewClient(algorand.WithRateLimit(5))
//	txns, err := client.FetchYear(ctx, address, 2021)
//	...
//	err = algorand.WriteJSONL(f, txns)
package algorand

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/robinvdvleuten/cointax/logging"
)

const (
	DefaultBaseURL   = "https://mainnet-idx.algonode.cloud"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
	DefaultPageSize  = 100
)

// HTTPError is returned for a non-200 indexer response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("indexer returned HTTP %d for %s", e.StatusCode, e.URL)
}

// Client reads account transactions from an indexer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
	logger     logrus.FieldLogger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets the indexer URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithRateLimit sets the maximum number of requests per second.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithPageSize sets how many transactions each request asks for.
func WithPageSize(size int) ClientOption {
	return func(c *Client) {
		c.pageSize = size
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an indexer client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		pageSize: DefaultPageSize,
		logger:   logging.NewSilent(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Page selects one page of an account's history.
type Page struct {
	After  time.Time
	Before time.Time
	Limit  int
	Next   string
}

// PageResult is one page of transactions and the token for the next one.
type PageResult struct {
	Transactions []AccountTransaction
	NextToken    string
}

// Transactions fetches one page of the account's transactions.
func (c *Client) Transactions(ctx context.Context, address string, page Page) (*PageResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.pageURL(address, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log := c.logger.WithFields(logrus.Fields{
		"address": address,
		"status":  resp.StatusCode,
		"elapsed": elapsed,
	})

	if resp.StatusCode != http.StatusOK {
		log.Warn("indexer returned non-OK response")
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: reqURL}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result, err := extractPage(body)
	if err != nil {
		return nil, err
	}

	log.WithField("count", len(result.Transactions)).Debug("fetched transaction page")
	return result, nil
}

func (c *Client) pageURL(address string, page Page) string {
	q := url.Values{}
	if !page.After.IsZero() {
		q.Set("after-time", page.After.UTC().Format(time.RFC3339))
	}
	if !page.Before.IsZero() {
		q.Set("before-time", page.Before.UTC().Format(time.RFC3339))
	}
	limit := page.Limit
	if limit <= 0 {
		limit = c.pageSize
	}
	q.Set("limit", strconv.Itoa(limit))
	if page.Next != "" {
		q.Set("next", page.Next)
	}
	return fmt.Sprintf("%s/v2/accounts/%s/transactions?%s", c.baseURL, url.PathEscape(address), q.Encode())
}

// extractPage pulls the transaction list and next-token out of a decoded
// indexer response.
func extractPage(body any) (*PageResult, error) {
	result := &PageResult{}

	if token, err := jsonpath.Get(`$["next-token"]`, body); err == nil {
		if s, ok := token.(string); ok {
			result.NextToken = s
		}
	}

	raw, err := jsonpath.Get("$.transactions", body)
	if err != nil {
		return nil, fmt.Errorf("response has no transactions: %w", err)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode transactions: %w", err)
	}
	if err := json.Unmarshal(data, &result.Transactions); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return result, nil
}
