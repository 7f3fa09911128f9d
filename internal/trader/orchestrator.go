package trader

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"solana-trading-bot/internal/chain"
	"solana-trading-bot/internal/config"
	"solana-trading-bot/internal/decision"
	"solana-trading-bot/internal/domain"
	"solana-trading-bot/internal/history"
	"solana-trading-bot/internal/indicator"
	"solana-trading-bot/internal/observability"
)

// Volatility input for position sizing. A real measure would derive from the
// price series; until then the sizing stays maximally conservative.
const assumedVolatility = 0.5

// Cooldown after a cycle panics before the loop resumes.
const recoveryDelay = 30 * time.Second

// Every how many cycles the aggregate metrics are logged.
const metricsLogInterval = 5

// CandidateSource is the scanner-facing seam: the live admitted set.
type CandidateSource interface {
	Potential(ctx context.Context) []*domain.Candidate
}

// Orchestrator drives the trading loop: evaluate the admitted candidates,
// open positions the decision engine approves, and manage open positions.
type Orchestrator struct {
	cfg        *config.Config
	logger     zerolog.Logger
	candidates CandidateSource
	indicators *indicator.Engine
	decisions  *decision.Engine
	history    history.Provider
	verifier   chain.ContractVerifier
	wallet     chain.Wallet
	manager    *PositionManager
	metrics    *observability.Metrics
}

// OrchestratorOptions carries the orchestrator's collaborators.
type OrchestratorOptions struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Candidates CandidateSource
	Indicators *indicator.Engine
	Decisions  *decision.Engine
	History    history.Provider
	Verifier   chain.ContractVerifier
	Wallet     chain.Wallet
	Manager    *PositionManager
	Metrics    *observability.Metrics
}

// NewOrchestrator creates the trading orchestrator.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	return &Orchestrator{
		cfg:        opts.Config,
		logger:     opts.Logger,
		candidates: opts.Candidates,
		indicators: opts.Indicators,
		decisions:  opts.Decisions,
		history:    opts.History,
		verifier:   opts.Verifier,
		wallet:     opts.Wallet,
		manager:    opts.Manager,
		metrics:    opts.Metrics,
	}
}

// Run executes trading cycles until the context is cancelled. A panicking
// cycle is logged and the loop resumes after a cooldown, so one bad
// iteration never terminates the process.
func (o *Orchestrator) Run(ctx context.Context) {
	o.logger.Info().Msg("starting preview trading loop")
	ticker := time.NewTicker(o.cfg.TradeInterval)
	defer ticker.Stop()

	for {
		if recovered := o.runCycle(ctx); recovered {
			select {
			case <-ctx.Done():
				return
			case <-time.After(recoveryDelay):
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runCycle executes one trading cycle and reports whether it panicked.
func (o *Orchestrator) runCycle(ctx context.Context) (recovered bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Interface("panic", r).Msg("trading cycle panicked, recovering")
			recovered = true
		}
	}()

	o.manager.RecordScan()
	if o.metrics != nil {
		o.metrics.TradeCycles.Inc()
	}

	tokens := o.candidates.Potential(ctx)
	o.manager.RecordPotential(len(tokens))
	if len(tokens) > 0 {
		o.logger.Info().Int("count", len(tokens)).Msg("received potential tokens from scanner")
		for _, c := range tokens {
			o.evaluate(ctx, c)
		}
	} else {
		o.logger.Info().Msg("no potential tokens this cycle")
	}

	o.manager.ManageOnce(ctx)

	if perf := o.manager.Metrics(); perf.Scans%metricsLogInterval == 0 {
		o.logMetrics(perf)
	}
	return false
}

func (o *Orchestrator) evaluate(ctx context.Context, c *domain.Candidate) {
	log := o.logger.With().Str("symbol", c.Symbol).Str("address", c.Address).Logger()

	if o.manager.HasPosition(ctx, c.Address) {
		return
	}

	safe, err := o.verifier.VerifyContract(ctx, c.Address)
	if err != nil {
		log.Warn().Err(err).Msg("contract verification failed")
		return
	}
	if !safe {
		log.Info().Msg("contract rejected by verifier")
		return
	}

	prices, err := o.history.Prices(ctx, c.Address)
	if err != nil || len(prices) == 0 {
		log.Warn().Err(err).Msg("no price history")
		return
	}
	volumes, err := o.history.Volumes(ctx, c.Address)
	if err != nil || len(volumes) == 0 {
		log.Warn().Err(err).Msg("no volume history")
		return
	}

	set, err := o.indicators.Compute(prices, volumes)
	if err != nil {
		log.Warn().Err(err).Msg("indicator computation failed")
		return
	}
	verdict := o.decisions.ShouldTrade(set, prices[len(prices)-1])
	if !verdict.Trade {
		log.Debug().Str("reason", verdict.Reason).Msg("not trading")
		return
	}

	if c.PriceUSD <= 0 {
		log.Warn().Float64("price", c.PriceUSD).Msg("cannot size position with invalid scanner price")
		return
	}
	size, err := o.positionSize(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sizing position")
		return
	}
	if size <= 0 {
		log.Info().Msg("position size is zero, skipping trade")
		return
	}

	log.Info().
		Float64("size", size).
		Float64("scanner_price", c.PriceUSD).
		Str("reason", verdict.Reason).
		Float64("liquidity", c.LiquidityUSD).
		Float64("volume_24h", c.Volume24h).
		Int("holders", c.Holders).
		Float64("buy_sell_ratio", c.BuySellRatio).
		Msg("executing simulated buy")
	if err := o.manager.OpenPosition(ctx, c.Address, c.Symbol, size); err != nil {
		log.Error().Err(err).Msg("opening position")
	}
}

// positionSize scales the per-trade budget down with volatility: base size is
// the configured fraction of the wallet balance, reduced by up to half.
func (o *Orchestrator) positionSize(ctx context.Context) (float64, error) {
	balance, err := o.wallet.Balance(ctx)
	if err != nil {
		return 0, err
	}
	base := balance * o.cfg.MaxPositionSize
	adjusted := base * (1 - math.Min(assumedVolatility, 0.5))
	return math.Min(adjusted, base), nil
}

func (o *Orchestrator) logMetrics(perf domain.PerformanceMetrics) {
	o.logger.Info().
		Int64("scans", perf.Scans).
		Int64("potential_trades", perf.PotentialTrades).
		Int64("executed_trades", perf.ExecutedTrades).
		Float64("win_rate", perf.WinRate).
		Float64("total_pl_pct", perf.TotalProfitLoss).
		Msg("performance metrics")
}
