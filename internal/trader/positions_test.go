package trader

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"solana-trading-bot/internal/config"
	"solana-trading-bot/internal/domain"
	"solana-trading-bot/internal/storage/memory"
)

type fakePrices struct {
	price float64
	err   error
}

func (f *fakePrices) TokenPrice(_ context.Context, _ string) (float64, error) {
	return f.price, f.err
}

func traderConfig() *config.Config {
	return &config.Config{
		StopLossPct:     12,
		TrailingStopPct: 5,
		TakeProfitPct:   15,
		MaxPositionSize: 0.1,
	}
}

func newTestManager(cfg *config.Config, prices *fakePrices) (*PositionManager, *memory.PositionStore) {
	store := memory.NewPositionStore()
	m := NewPositionManager(cfg, zerolog.Nop(), prices, store, nil)
	return m, store
}

func TestOpenPosition_SetsLevelsFromEntry(t *testing.T) {
	prices := &fakePrices{price: 100}
	m, store := newTestManager(traderConfig(), prices)
	ctx := context.Background()

	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("OpenPosition failed: %v", err)
	}

	p, err := store.Get(ctx, "mint123")
	if err != nil {
		t.Fatalf("position not stored: %v", err)
	}
	if p.EntryPrice != 100 || p.StopLoss != 88 || p.TakeProfit != 115 {
		t.Errorf("levels = entry %v, stop %v, target %v; want 100, 88, 115", p.EntryPrice, p.StopLoss, p.TakeProfit)
	}
	if p.HighestPrice != 100 {
		t.Errorf("HighestPrice seeded with %v, want entry 100", p.HighestPrice)
	}
	if p.Size != 0.5 {
		t.Errorf("Size = %v, want 0.5", p.Size)
	}
}

func TestOpenPosition_SkipsWithoutValidPrice(t *testing.T) {
	ctx := context.Background()

	m, store := newTestManager(traderConfig(), &fakePrices{err: errors.New("feed down")})
	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("OpenPosition must not error on a flaky feed: %v", err)
	}
	if open, _ := store.OpenPositions(ctx); len(open) != 0 {
		t.Error("no position should open without an entry price")
	}

	m, store = newTestManager(traderConfig(), &fakePrices{price: 0})
	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("OpenPosition failed: %v", err)
	}
	if open, _ := store.OpenPositions(ctx); len(open) != 0 {
		t.Error("no position should open at a non-positive price")
	}
}

func TestOpenPosition_DuplicateIsNoop(t *testing.T) {
	prices := &fakePrices{price: 100}
	m, store := newTestManager(traderConfig(), prices)
	ctx := context.Background()

	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	prices.price = 120
	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("second open must be a no-op, got: %v", err)
	}

	p, err := store.Get(ctx, "mint123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.EntryPrice != 100 {
		t.Errorf("original position was replaced: entry %v", p.EntryPrice)
	}
}

func TestManageOnce_TrailingStopRatchet(t *testing.T) {
	prices := &fakePrices{price: 100}
	m, store := newTestManager(traderConfig(), prices)
	ctx := context.Background()

	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("OpenPosition failed: %v", err)
	}

	// Peak at 110 lifts the stop to 110 × 0.95 = 104.5.
	prices.price = 110
	m.ManageOnce(ctx)
	p, err := store.Get(ctx, "mint123")
	if err != nil {
		t.Fatalf("position unexpectedly closed: %v", err)
	}
	if p.StopLoss != 104.5 {
		t.Errorf("StopLoss = %v, want 104.5", p.StopLoss)
	}
	if p.HighestPrice != 110 {
		t.Errorf("HighestPrice = %v, want 110", p.HighestPrice)
	}

	// A pullback to 105 sits above the stop: no exit, and the stop holds
	// at 104.5 rather than retreating with the price.
	prices.price = 105
	m.ManageOnce(ctx)
	p, err = store.Get(ctx, "mint123")
	if err != nil {
		t.Fatalf("position unexpectedly closed: %v", err)
	}
	if p.StopLoss != 104.5 {
		t.Errorf("StopLoss retreated to %v, want 104.5", p.StopLoss)
	}

	// Falling through the stop closes the position at a realized gain.
	prices.price = 104
	m.ManageOnce(ctx)
	if _, err := store.Get(ctx, "mint123"); err == nil {
		t.Fatal("position should be closed after breaching the stop")
	}
	closed, _ := store.ClosedPositions(ctx)
	if len(closed) != 1 {
		t.Fatalf("expected 1 closed position, got %d", len(closed))
	}
	if closed[0].ExitReason != domain.ExitReasonStopLoss {
		t.Errorf("ExitReason = %s, want %s", closed[0].ExitReason, domain.ExitReasonStopLoss)
	}
	if closed[0].ProfitLossPct != 4 {
		t.Errorf("ProfitLossPct = %v, want 4", closed[0].ProfitLossPct)
	}
}

func TestManageOnce_TrailingRespectsInitialFixedStop(t *testing.T) {
	cfg := traderConfig()
	cfg.StopLossPct = 10
	cfg.TrailingStopPct = 15

	prices := &fakePrices{price: 200}
	m, store := newTestManager(cfg, prices)
	ctx := context.Background()

	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("OpenPosition failed: %v", err)
	}

	// Entry 200 puts the fixed stop at 180. A rise to 202 yields a
	// trailing candidate of 171.7, below the fixed stop, so the stored
	// stop stays at 180.
	prices.price = 202
	m.ManageOnce(ctx)
	p, err := store.Get(ctx, "mint123")
	if err != nil {
		t.Fatalf("position unexpectedly closed: %v", err)
	}
	if p.StopLoss != 180 {
		t.Errorf("StopLoss = %v, want 180", p.StopLoss)
	}
}

func TestManageOnce_StopLossIsMonotone(t *testing.T) {
	prices := &fakePrices{price: 100}
	m, store := newTestManager(traderConfig(), prices)
	ctx := context.Background()

	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("OpenPosition failed: %v", err)
	}

	last := 0.0
	for _, price := range []float64{101, 108, 103, 110, 106, 109, 105} {
		prices.price = price
		m.ManageOnce(ctx)
		p, err := store.Get(ctx, "mint123")
		if err != nil {
			t.Fatalf("position closed early at price %v: %v", price, err)
		}
		if p.StopLoss < last {
			t.Fatalf("stop retreated from %v to %v at price %v", last, p.StopLoss, price)
		}
		last = p.StopLoss
	}
}

func TestManageOnce_TakeProfit(t *testing.T) {
	prices := &fakePrices{price: 100}
	m, store := newTestManager(traderConfig(), prices)
	ctx := context.Background()

	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("OpenPosition failed: %v", err)
	}

	prices.price = 116
	m.ManageOnce(ctx)

	closed, _ := store.ClosedPositions(ctx)
	if len(closed) != 1 || closed[0].ExitReason != domain.ExitReasonTakeProfit {
		t.Fatalf("expected a take-profit close, got %+v", closed)
	}

	perf := m.Metrics()
	if perf.ExecutedTrades != 1 || perf.SuccessfulTrades != 1 {
		t.Errorf("metrics = %+v, want 1 executed, 1 successful", perf)
	}
	if perf.WinRate != 100 {
		t.Errorf("WinRate = %v, want 100", perf.WinRate)
	}
	if perf.TotalProfitLoss != 16 {
		t.Errorf("TotalProfitLoss = %v, want 16", perf.TotalProfitLoss)
	}
}

func TestManageOnce_SkipsOnMissingPrice(t *testing.T) {
	prices := &fakePrices{price: 100}
	m, store := newTestManager(traderConfig(), prices)
	ctx := context.Background()

	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("OpenPosition failed: %v", err)
	}

	// A flaky feed skips the position for the cycle with no state change.
	prices.err = errors.New("feed down")
	m.ManageOnce(ctx)
	p, err := store.Get(ctx, "mint123")
	if err != nil {
		t.Fatalf("position should survive a feed outage: %v", err)
	}
	if p.StopLoss != 88 || p.HighestPrice != 100 {
		t.Errorf("state changed during outage: %+v", p)
	}

	// Same for a non-positive quote.
	prices.err = nil
	prices.price = -1
	m.ManageOnce(ctx)
	if p, _ := store.Get(ctx, "mint123"); p == nil || p.StopLoss != 88 {
		t.Error("state changed on a non-positive quote")
	}
}

func TestRecordTrade_LossTracking(t *testing.T) {
	prices := &fakePrices{price: 100}
	m, _ := newTestManager(traderConfig(), prices)
	ctx := context.Background()

	if err := m.OpenPosition(ctx, "mint123", "TST", 0.5); err != nil {
		t.Fatalf("OpenPosition failed: %v", err)
	}
	prices.price = 80
	m.ManageOnce(ctx)

	perf := m.Metrics()
	if perf.FailedTrades != 1 || perf.SuccessfulTrades != 0 {
		t.Errorf("metrics = %+v, want 1 failed trade", perf)
	}
	if perf.WinRate != 0 {
		t.Errorf("WinRate = %v, want 0", perf.WinRate)
	}
	if perf.TotalProfitLoss != -20 {
		t.Errorf("TotalProfitLoss = %v, want -20", perf.TotalProfitLoss)
	}
}
