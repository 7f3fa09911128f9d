// Package scanner implements the token discovery pipeline: poll the market
// data API, run admission checks and risk verification, and maintain the
// time-windowed set of candidates the trading loop draws from.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"solana-trading-bot/internal/config"
	"solana-trading-bot/internal/dexscreener"
	"solana-trading-bot/internal/domain"
	"solana-trading-bot/internal/filter"
	"solana-trading-bot/internal/observability"
	"solana-trading-bot/internal/sentiment"
	"solana-trading-bot/internal/solana"
	"solana-trading-bot/internal/storage"
)

// MarketData is the pair feed the scanner polls.
type MarketData interface {
	LatestPairs(ctx context.Context, chain string) ([]dexscreener.Pair, error)
}

// RiskAssessor verifies token safety. Implementations never return an error;
// failures surface inside the assessment.
type RiskAssessor interface {
	Assess(ctx context.Context, tokenAddress string) *domain.RiskAssessment
}

// Scanner runs the discovery pipeline.
type Scanner struct {
	cfg       *config.Config
	logger    zerolog.Logger
	market    MarketData
	risk      RiskAssessor
	sentiment sentiment.Provider
	filter    *filter.Engine
	store     storage.CandidateStore
	metrics   *observability.Metrics

	now       func() time.Time
	scanCount int
}

// Options carries the scanner's collaborators.
type Options struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Market    MarketData
	Risk      RiskAssessor
	Sentiment sentiment.Provider
	Filter    *filter.Engine
	Store     storage.CandidateStore
	Metrics   *observability.Metrics
}

// New creates a scanner.
func New(opts Options) *Scanner {
	return &Scanner{
		cfg:       opts.Config,
		logger:    opts.Logger,
		market:    opts.Market,
		risk:      opts.Risk,
		sentiment: opts.Sentiment,
		filter:    opts.Filter,
		store:     opts.Store,
		metrics:   opts.Metrics,
		now:       time.Now,
	}
}

// ScanOnce runs one polling iteration. A failure fetching the pair list
// aborts only this iteration; a failure processing one pair is logged and
// skipped without affecting the rest of the batch.
func (s *Scanner) ScanOnce(ctx context.Context) error {
	pairs, err := s.market.LatestPairs(ctx, s.cfg.ChainID)
	if err != nil {
		return fmt.Errorf("fetch pairs: %w", err)
	}

	s.scanCount++
	s.logger.Info().Int("iteration", s.scanCount).Int("pairs", len(pairs)).Msg("scan iteration")
	if s.metrics != nil {
		s.metrics.ScanIterations.Inc()
		s.metrics.LastSuccessfulScan.SetToCurrentTime()
	}

	for i := range pairs {
		if err := s.processPair(ctx, &pairs[i]); err != nil {
			s.logger.Warn().Err(err).Str("pair", pairs[i].PairAddress).Msg("pair processing failed")
		}
	}
	return nil
}

func (s *Scanner) processPair(ctx context.Context, pair *dexscreener.Pair) error {
	if s.metrics != nil {
		s.metrics.PairsScanned.Inc()
	}

	addr := pair.BaseToken.Address
	symbol := pair.BaseToken.Symbol
	if addr == "" || symbol == "" || pair.PairAddress == "" {
		s.reject("structure")
		return nil
	}
	if err := solana.ValidateAddress(addr); err != nil {
		s.reject("address")
		s.logger.Debug().Str("address", addr).Err(err).Msg("invalid base token address")
		return nil
	}

	log := s.logger.With().Str("symbol", symbol).Str("address", addr).Logger()

	if !s.filter.AllowedBySuffix(addr) {
		s.reject("suffix")
		return nil
	}

	ok, reason := s.filter.Passes(pair)
	if !ok {
		s.reject("filter")
		log.Debug().Str("reason", reason).Msg("failed primary checks")
		return nil
	}

	risk := s.risk.Assess(ctx, addr)
	if !risk.IsSafe {
		s.reject("risk")
		log.Info().Strs("reasons", risk.Reasons).Str("api_error", risk.APIError).Msg("filtered out by risk check")
		if s.metrics != nil {
			s.metrics.RiskAssessments.WithLabelValues("unsafe").Inc()
		}
		return nil
	}
	if s.metrics != nil {
		s.metrics.RiskAssessments.WithLabelValues("safe").Inc()
	}

	// A pair that passed the filter can still carry an unparseable
	// price; that skips the candidate rather than aborting the scan.
	price, err := pair.Price()
	if err != nil {
		s.reject("numeric")
		return fmt.Errorf("capture price: %w", err)
	}
	candidate := &domain.Candidate{
		Address:       addr,
		PairAddress:   pair.PairAddress,
		Symbol:        symbol,
		PriceUSD:      price,
		Volume24h:     pair.Volume.H24,
		Volume1h:      pair.Volume.H1,
		Buys1h:        pair.Txns.H1.Buys,
		Sells1h:       pair.Txns.H1.Sells,
		BuySellRatio:  domain.ComputeBuySellRatio(pair.Txns.H1.Buys, pair.Txns.H1.Sells),
		PriceChange1h: pair.PriceChange.H1,
		Risk:          risk,
		Sentiment:     s.sentiment.Analyze(ctx, symbol, addr),
		DiscoveredAt:  s.now(),
	}
	if pair.Liquidity != nil && pair.Liquidity.USD != nil {
		candidate.LiquidityUSD = *pair.Liquidity.USD
	}
	if pair.FDV != nil {
		candidate.FDV = *pair.FDV
	}
	if pair.PairCreatedAt != nil {
		candidate.PairCreatedAt = time.UnixMilli(*pair.PairCreatedAt)
	}
	if pair.Holders != nil {
		candidate.Holders = pair.Holders.Total
	}

	if err := s.store.Put(ctx, candidate); err != nil {
		return fmt.Errorf("store candidate: %w", err)
	}
	if s.metrics != nil {
		s.metrics.CandidatesAdmitted.Inc()
	}
	log.Info().Float64("price", price).Msg("added to potential tokens")
	return nil
}

func (s *Scanner) reject(stage string) {
	if s.metrics != nil {
		s.metrics.PairsRejected.WithLabelValues(stage).Inc()
	}
}

// Potential returns the candidates still inside the retention window. The
// read evicts expired entries as a side effect, so repeated calls can shrink
// the result without new scan activity.
func (s *Scanner) Potential(ctx context.Context) []*domain.Candidate {
	fresh, err := s.store.Fresh(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reading admitted candidates")
		return nil
	}
	if s.metrics != nil {
		s.metrics.AdmittedSetSize.Set(float64(len(fresh)))
	}
	return fresh
}

// Run polls until the context is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		if err := s.ScanOnce(ctx); err != nil {
			s.logger.Error().Err(err).Msg("scan iteration failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
