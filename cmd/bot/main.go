// Command bot runs the full simulated trading service: the scanner loop
// discovering candidate tokens, the trading loop evaluating them and managing
// positions, and the HTTP status API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"solana-trading-bot/internal/chain"
	"solana-trading-bot/internal/config"
	"solana-trading-bot/internal/decision"
	"solana-trading-bot/internal/dexscreener"
	"solana-trading-bot/internal/filter"
	"solana-trading-bot/internal/history"
	"solana-trading-bot/internal/indicator"
	"solana-trading-bot/internal/logging"
	"solana-trading-bot/internal/observability"
	"solana-trading-bot/internal/rugcheck"
	"solana-trading-bot/internal/scanner"
	"solana-trading-bot/internal/sentiment"
	"solana-trading-bot/internal/server"
	"solana-trading-bot/internal/storage/memory"
	"solana-trading-bot/internal/trader"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogPretty)
	metrics := observability.NewMetrics("solana_trading_bot")

	market := dexscreener.New(cfg.DexScreenerAPI,
		dexscreener.WithTimeout(cfg.HTTPTimeout),
		dexscreener.WithRateLimit(cfg.DexScreenerRPS),
		dexscreener.WithMetrics(metrics),
	)

	tokens := rugcheck.NewTokenProvider(rugcheck.AuthConfig{
		AuthURL:       cfg.RugCheckAuthURL,
		StaticToken:   cfg.RugCheckJWT,
		PrivateKeyHex: cfg.RugCheckPrivateKeyHex,
		Wallet:        cfg.RugCheckWallet,
		Metrics:       metrics,
	}, logger)
	risk := rugcheck.NewClient(rugcheck.Config{
		BaseURL:           cfg.RugCheckAPI,
		ScoreThreshold:    cfg.RugCheckScoreThreshold,
		CriticalRiskNames: cfg.RugCheckCriticalRisks,
		Tokens:            tokens,
		Metrics:           metrics,
	}, logger)

	candidates := memory.NewCandidateStore(cfg.CandidateRetention)
	positions := memory.NewPositionStore()

	scan := scanner.New(scanner.Options{
		Config:    cfg,
		Logger:    logger,
		Market:    market,
		Risk:      risk,
		Sentiment: sentiment.NewPlaceholder(),
		Filter:    filter.New(cfg, logger),
		Store:     candidates,
		Metrics:   metrics,
	})

	manager := trader.NewPositionManager(cfg, logger, market, positions, metrics)
	orchestrator := trader.NewOrchestrator(trader.OrchestratorOptions{
		Config:     cfg,
		Logger:     logger,
		Candidates: scan,
		Indicators: indicator.New(cfg),
		Decisions:  decision.New(),
		History:    history.NewFixture(),
		Verifier:   chain.StubVerifier{},
		Wallet:     chain.NewStubWallet(),
		Manager:    manager,
		Metrics:    metrics,
	})

	api := server.New(server.Options{
		Config:      cfg,
		Logger:      logger,
		Performance: manager,
		Candidates:  scan,
		Positions:   positions,
		Prices:      market,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("chain", cfg.ChainID).
		Dur("scan_interval", cfg.ScanInterval).
		Dur("trade_interval", cfg.TradeInterval).
		Msg("starting trading bot")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scan.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		orchestrator.Run(ctx)
	}()

	if err := api.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("status API failed")
	}
	stop()
	wg.Wait()

	logger.Info().Msg("shutdown complete")
}
