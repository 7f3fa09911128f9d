// Package dexscreener is a client for the DexScreener market-data API.
package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"solana-trading-bot/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout = 15 * time.Second
	DefaultRPS     = 4
)

// ErrRateLimited is returned when DexScreener responds with HTTP 429.
var ErrRateLimited = errors.New("dexscreener: rate limited")

// Client talks to the DexScreener REST API. Calls are paced by a local rate
// limiter so the scan and trade loops cannot trip the upstream limit between
// them.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	metrics *observability.Metrics
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithRateLimit sets the request budget in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithMetrics enables per-endpoint call latency observation.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a DexScreener client for the given API base URL,
// e.g. https://api.dexscreener.com/latest/dex.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(DefaultRPS), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestPairs fetches the current pair list for a chain. Pairs are returned
// in API order; the scanner relies on that ordering staying untouched.
func (c *Client) LatestPairs(ctx context.Context, chain string) ([]Pair, error) {
	var resp pairsResponse
	if err := c.get(ctx, "pairs", fmt.Sprintf("%s/pairs/%s", c.baseURL, chain), &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// TokenPairs fetches all pairs trading a given token.
func (c *Client) TokenPairs(ctx context.Context, tokenAddress string) ([]Pair, error) {
	var resp pairsResponse
	if err := c.get(ctx, "tokens", fmt.Sprintf("%s/tokens/%s", c.baseURL, tokenAddress), &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// TokenPrice returns the USD price of a token from its first listed pair.
func (c *Client) TokenPrice(ctx context.Context, tokenAddress string) (float64, error) {
	pairs, err := c.TokenPairs(ctx, tokenAddress)
	if err != nil {
		return 0, err
	}
	if len(pairs) == 0 {
		return 0, fmt.Errorf("token %s: no pairs listed", tokenAddress)
	}
	return pairs[0].Price()
}

func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if c.metrics != nil {
		c.metrics.MarketCallLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
