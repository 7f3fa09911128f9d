// Package rugcheck queries the RugCheck token safety API and decides whether
// a token is safe to trade.
package rugcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"solana-trading-bot/internal/domain"
	"solana-trading-bot/internal/observability"
)

// DefaultTimeout bounds one report lookup.
const DefaultTimeout = 20 * time.Second

// TokenSource supplies the current bearer token, empty when unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Config configures a Client.
type Config struct {
	// BaseURL is the token report base, e.g. https://api.rugcheck.xyz/v1/tokens.
	BaseURL string
	// ScoreThreshold is the minimum acceptable score; the normalised score is
	// preferred for the comparison when present.
	ScoreThreshold float64
	// CriticalRiskNames force is_safe=false when any reported risk matches.
	CriticalRiskNames []string
	Tokens            TokenSource
	HTTPClient        *http.Client
	Metrics           *observability.Metrics
}

// Client fetches report summaries. Assess never returns an error: every
// failure mode is folded into an unsafe RiskAssessment with a reason, so the
// scan loop can treat the result uniformly.
type Client struct {
	cfg      Config
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	critical map[string]struct{}
	logger   zerolog.Logger
}

// NewClient creates a RugCheck client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	critical := make(map[string]struct{}, len(cfg.CriticalRiskNames))
	for _, name := range cfg.CriticalRiskNames {
		critical[name] = struct{}{}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "rugcheck",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		cfg:      cfg,
		client:   client,
		breaker:  breaker,
		critical: critical,
		logger:   logger.With().Str("component", "rugcheck").Logger(),
	}
}

// reply is the raw outcome of one report HTTP transaction. Only transport
// errors and 5xx responses count as circuit-breaker failures; a 4xx is a
// valid answer about the token.
type reply struct {
	status int
	body   []byte
}

// Assess fetches the report summary for a token and evaluates it against the
// configured threshold and critical risk names.
func (c *Client) Assess(ctx context.Context, tokenAddress string) *domain.RiskAssessment {
	if tokenAddress == "" {
		return unsafe("No token address provided.", "no token address")
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, tokenAddress)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return unsafe("Risk API temporarily unavailable", "circuit breaker open")
		}
		c.logger.Warn().Err(err).Str("token", tokenAddress).Msg("rugcheck call failed")
		return unsafe("Risk API call failed", err.Error())
	}

	return c.interpret(res.(*reply))
}

func (c *Client) fetch(ctx context.Context, tokenAddress string) (*reply, error) {
	url := fmt.Sprintf("%s/%s/report/summary", strings.TrimRight(c.cfg.BaseURL, "/"), tokenAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Tokens != nil {
		if token := c.cfg.Tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.RiskAPILatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return &reply{status: resp.StatusCode, body: body}, nil
}

func (c *Client) interpret(r *reply) *domain.RiskAssessment {
	switch {
	case r.status == http.StatusNotFound:
		return unsafe("Token not found on RugCheck", fmt.Sprintf("token not found (%d)", r.status))
	case r.status == http.StatusUnauthorized || r.status == http.StatusForbidden:
		return unsafe("RugCheck API authorization failed", fmt.Sprintf("auth error (%d)", r.status))
	case r.status == http.StatusTooManyRequests:
		return unsafe("RugCheck API rate limit exceeded", fmt.Sprintf("rate limit (%d)", r.status))
	case r.status < 200 || r.status > 299:
		return unsafe(fmt.Sprintf("HTTP error: %d", r.status), fmt.Sprintf("status %d", r.status))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.body, &fields); err != nil || fields == nil {
		return unsafe("Empty/invalid response from RugCheck", "invalid API response format")
	}

	result := &domain.RiskAssessment{IsSafe: true}
	result.Score = extractNumber(fields, "score")
	result.ScoreNormalised = extractNumber(fields, "scoreNormalised")

	// The normalised score is preferred for thresholding when present, even
	// when present-but-garbage; falling back to the raw score would mask a
	// malformed field.
	checkRaw := rawNonNull(fields, "scoreNormalised")
	if checkRaw == nil {
		checkRaw = rawNonNull(fields, "score")
	}
	var check *float64
	if checkRaw != nil {
		var v float64
		if err := json.Unmarshal(checkRaw, &v); err == nil {
			check = &v
		}
	}
	switch {
	case checkRaw == nil:
		result.IsSafe = false
		result.Reasons = append(result.Reasons, "Score missing")
	case check == nil:
		result.IsSafe = false
		result.Reasons = append(result.Reasons, fmt.Sprintf("Score %s is not numeric", checkRaw))
	case *check < c.cfg.ScoreThreshold:
		result.IsSafe = false
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("Score (%g) is below threshold (%g)", *check, c.cfg.ScoreThreshold))
	}

	// risks absent or null: nothing to check, no flag-based rejection.
	// risks present but not a list: unsafe on its own, regardless of score.
	if raw := rawNonNull(fields, "risks"); raw != nil {
		var flags []domain.RiskFlag
		if err := json.Unmarshal(raw, &flags); err != nil {
			result.RisksMalformed = true
			result.IsSafe = false
			result.Reasons = append(result.Reasons, "Malformed risks field in RugCheck response")
		} else {
			result.Risks = flags
			for _, flag := range flags {
				if _, ok := c.critical[flag.Name]; ok {
					result.IsSafe = false
					desc := flag.Description
					if desc == "" {
						desc = "N/A"
					}
					result.Reasons = append(result.Reasons,
						fmt.Sprintf("Critical risk: %s - %s", flag.Name, desc))
				}
			}
		}
	}

	return result
}

// unsafe builds the failure-path assessment shared by every error branch.
func unsafe(reason, apiErr string) *domain.RiskAssessment {
	return &domain.RiskAssessment{
		IsSafe:   false,
		Reasons:  []string{reason},
		APIError: apiErr,
	}
}

// extractNumber pulls a numeric field, returning nil when the field is
// absent, null, or not numeric.
func extractNumber(fields map[string]json.RawMessage, key string) *float64 {
	raw := rawNonNull(fields, key)
	if raw == nil {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// rawNonNull returns the raw value for key, treating JSON null as absent.
func rawNonNull(fields map[string]json.RawMessage, key string) json.RawMessage {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	return raw
}
