// Package trader implements the simulated trading side of the pipeline: the
// position manager (entries, trailing stops, exits, realized P/L) and the
// orchestrator that drives it from the scanner's admitted set.
package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-trading-bot/internal/config"
	"solana-trading-bot/internal/domain"
	"solana-trading-bot/internal/observability"
	"solana-trading-bot/internal/storage"
)

// PriceLookup resolves the live price of a token.
type PriceLookup interface {
	TokenPrice(ctx context.Context, tokenAddress string) (float64, error)
}

// PositionManager owns the open-position lifecycle: opening entries with
// fixed stop/target levels, ratcheting the trailing stop on every management
// cycle, and realizing P/L on exit.
type PositionManager struct {
	cfg     *config.Config
	logger  zerolog.Logger
	prices  PriceLookup
	store   storage.PositionStore
	metrics *observability.Metrics

	mu   sync.Mutex
	perf domain.PerformanceMetrics
	now  func() time.Time
}

// NewPositionManager creates a position manager.
func NewPositionManager(cfg *config.Config, logger zerolog.Logger, prices PriceLookup, store storage.PositionStore, metrics *observability.Metrics) *PositionManager {
	return &PositionManager{
		cfg:     cfg,
		logger:  logger,
		prices:  prices,
		store:   store,
		metrics: metrics,
		now:     time.Now,
	}
}

// HasPosition reports whether a position is open for the token.
func (m *PositionManager) HasPosition(ctx context.Context, tokenAddress string) bool {
	_, err := m.store.Get(ctx, tokenAddress)
	return err == nil
}

// OpenPosition enters a simulated position at the live price. The entry is
// skipped without error when the price is unavailable or non-positive, or
// when a position for the token is already open.
func (m *PositionManager) OpenPosition(ctx context.Context, tokenAddress, symbol string, size float64) error {
	entry, err := m.prices.TokenPrice(ctx, tokenAddress)
	if err != nil {
		m.logger.Error().Err(err).Str("address", tokenAddress).Msg("no entry price, buy not placed")
		return nil
	}
	if entry <= 0 {
		m.logger.Warn().Float64("price", entry).Str("address", tokenAddress).Msg("non-positive entry price, buy not placed")
		return nil
	}

	p := &domain.Position{
		TokenAddress: tokenAddress,
		Symbol:       symbol,
		EntryPrice:   entry,
		Size:         size,
		StopLoss:     entry * (1 - m.cfg.StopLossPct/100),
		TakeProfit:   entry * (1 + m.cfg.TakeProfitPct/100),
		HighestPrice: entry,
		OpenedAt:     m.now(),
	}
	if err := m.store.Open(ctx, p); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("open position: %w", err)
	}

	m.logger.Info().
		Str("symbol", symbol).
		Str("address", tokenAddress).
		Float64("entry", entry).
		Float64("size", size).
		Float64("stop_loss", p.StopLoss).
		Float64("take_profit", p.TakeProfit).
		Msg("PREVIEW: opened position")
	if m.metrics != nil {
		m.metrics.PositionsOpened.Inc()
	}
	m.syncOpenGauge(ctx)
	return nil
}

// ManageOnce runs one management cycle over every open position: refresh the
// peak, ratchet the trailing stop, and close on a stop or target breach. A
// position whose price cannot be fetched is skipped with no state change.
func (m *PositionManager) ManageOnce(ctx context.Context) {
	open, err := m.store.OpenPositions(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("listing open positions")
		return
	}
	if len(open) == 0 {
		return
	}
	m.logger.Info().Int("positions", len(open)).Msg("managing open positions")

	for _, p := range open {
		price, err := m.prices.TokenPrice(ctx, p.TokenAddress)
		if err != nil {
			m.logger.Warn().Err(err).Str("address", p.TokenAddress).Msg("no price, skipping position this cycle")
			continue
		}
		if price <= 0 {
			m.logger.Warn().Float64("price", price).Str("address", p.TokenAddress).Msg("non-positive price, skipping position this cycle")
			continue
		}

		if price > p.HighestPrice {
			p.HighestPrice = price
		}
		// The stop only ever ratchets up: the trailing candidate tracks
		// the peak, and the stored stop is the max of the two.
		trailing := p.HighestPrice * (1 - m.cfg.TrailingStopPct/100)
		if trailing > p.StopLoss {
			p.StopLoss = trailing
		}
		if err := m.store.Update(ctx, p); err != nil {
			m.logger.Error().Err(err).Str("address", p.TokenAddress).Msg("updating position")
			continue
		}

		switch {
		case price <= p.StopLoss:
			m.logger.Info().Str("address", p.TokenAddress).Float64("price", price).Float64("stop_loss", p.StopLoss).Msg("stop loss triggered")
			m.closePosition(ctx, p, price, domain.ExitReasonStopLoss)
		case price >= p.TakeProfit:
			m.logger.Info().Str("address", p.TokenAddress).Float64("price", price).Float64("take_profit", p.TakeProfit).Msg("take profit triggered")
			m.closePosition(ctx, p, price, domain.ExitReasonTakeProfit)
		}
	}
}

func (m *PositionManager) closePosition(ctx context.Context, p *domain.Position, exitPrice float64, reason string) {
	pl := (exitPrice - p.EntryPrice) / p.EntryPrice * 100
	cp := &domain.ClosedPosition{
		Position:      *p,
		ExitPrice:     exitPrice,
		ExitReason:    reason,
		ProfitLossPct: pl,
		ClosedAt:      m.now(),
	}
	if err := m.store.Close(ctx, p.TokenAddress, cp); err != nil {
		m.logger.Error().Err(err).Str("address", p.TokenAddress).Msg("closing position")
		return
	}

	m.recordTrade(pl)
	m.logger.Info().
		Str("symbol", p.Symbol).
		Str("address", p.TokenAddress).
		Str("reason", reason).
		Float64("entry", p.EntryPrice).
		Float64("exit", exitPrice).
		Float64("pl_pct", pl).
		Msg("PREVIEW: closed position")
	if m.metrics != nil {
		m.metrics.PositionsClosed.WithLabelValues(reason).Inc()
	}
	m.syncOpenGauge(ctx)
}

func (m *PositionManager) recordTrade(plPct float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.perf.ExecutedTrades++
	if plPct > 0 {
		m.perf.SuccessfulTrades++
	} else {
		m.perf.FailedTrades++
	}
	m.perf.TotalProfitLoss += plPct
	m.perf.WinRate = float64(m.perf.SuccessfulTrades) / float64(m.perf.ExecutedTrades) * 100

	if m.metrics != nil {
		m.metrics.TotalProfitLoss.Set(m.perf.TotalProfitLoss)
		m.metrics.WinRate.Set(m.perf.WinRate)
	}
}

// RecordScan counts one trading-loop cycle in the aggregate metrics.
func (m *PositionManager) RecordScan() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perf.Scans++
}

// RecordPotential records the size of the admitted set seen this cycle.
func (m *PositionManager) RecordPotential(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perf.PotentialTrades = int64(n)
}

// Metrics returns a snapshot of the aggregate performance metrics.
func (m *PositionManager) Metrics() domain.PerformanceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perf
}

func (m *PositionManager) syncOpenGauge(ctx context.Context) {
	if m.metrics == nil {
		return
	}
	if open, err := m.store.OpenPositions(ctx); err == nil {
		m.metrics.OpenPositions.Set(float64(len(open)))
	}
}
