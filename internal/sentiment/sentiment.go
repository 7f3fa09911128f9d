// Package sentiment provides social-sentiment scoring for scanned tokens.
// The real integration (social mentions, news feeds) is not wired yet; the
// placeholder provider returns a neutral baseline so downstream consumers can
// already depend on the interface.
package sentiment

import (
	"context"

	"solana-trading-bot/internal/domain"
)

// Provider scores market sentiment for a token.
type Provider interface {
	Analyze(ctx context.Context, symbol, tokenAddress string) *domain.SentimentResult
}

// Placeholder returns a neutral score for every token.
type Placeholder struct{}

// NewPlaceholder creates the placeholder provider.
func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

// Analyze returns the neutral baseline.
func (p *Placeholder) Analyze(_ context.Context, _, _ string) *domain.SentimentResult {
	return &domain.SentimentResult{
		Score:         0.5,
		Label:         "neutral",
		PostsAnalyzed: 0,
		Source:        "placeholder",
	}
}

var _ Provider = (*Placeholder)(nil)
