// Package filter implements the ordered admission filter chain that decides
// whether a DexScreener pair is worth deeper analysis.
package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solana-trading-bot/internal/config"
	"solana-trading-bot/internal/dexscreener"
)

// hardPriceDropFloor rejects tokens in freefall regardless of other signals.
const hardPriceDropFloor = -10.0

// Engine applies the admission checks to one pair. All checks are conjunctive;
// the first failure short-circuits with its reason, so the order below only
// shapes diagnostics, not the admit set.
type Engine struct {
	cfg    *config.Config
	logger zerolog.Logger
	now    func() time.Time

	warnedEmptySuffix bool
}

// New creates a filter engine bound to an immutable configuration.
func New(cfg *config.Config, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.With().Str("component", "filter").Logger(),
		now:    time.Now,
	}
}

// Passes runs the full filter chain on a pair. It is a pure function of the
// pair, the configuration, and the current time; it performs no I/O.
func (e *Engine) Passes(pair *dexscreener.Pair) (bool, string) {
	// 1. Market cap (FDV proxy) within the configured band.
	if pair.FDV == nil {
		return false, "Missing FDV (market cap)"
	}
	marketCap := *pair.FDV
	if marketCap < e.cfg.TargetMarketCap {
		return false, fmt.Sprintf("MC $%s < Target $%s", usd(marketCap), usd(e.cfg.TargetMarketCap))
	}
	if marketCap > e.cfg.MaxMarketCap {
		return false, fmt.Sprintf("MC $%s > Max $%s", usd(marketCap), usd(e.cfg.MaxMarketCap))
	}

	// 2. Pair age.
	if pair.PairCreatedAt == nil {
		return false, "Missing pairCreatedAt"
	}
	created := time.UnixMilli(*pair.PairCreatedAt)
	ageHours := e.now().Sub(created).Hours()
	if ageHours > e.cfg.MaxTokenAgeHours {
		return false, fmt.Sprintf("Token too old: %.1fh > %gh", ageHours, e.cfg.MaxTokenAgeHours)
	}

	// 3. Pooled liquidity.
	if pair.Liquidity == nil || pair.Liquidity.USD == nil {
		return false, "Missing liquidity USD"
	}
	liquidity := *pair.Liquidity.USD
	if liquidity < e.cfg.MinLiquidityUSD {
		return false, fmt.Sprintf("Liquidity $%s < Min $%s", usd(liquidity), usd(e.cfg.MinLiquidityUSD))
	}

	// 4. Transaction count over the last hour.
	buys, sells := pair.Txns.H1.Buys, pair.Txns.H1.Sells
	if buys+sells < e.cfg.MinTransactions {
		return false, fmt.Sprintf("Txns (1h) %d < Min %d", buys+sells, e.cfg.MinTransactions)
	}

	// 5. Buy/sell ratio; zero sells count as infinitely buy-heavy and pass.
	if sells > 0 {
		ratio := float64(buys) / float64(sells)
		if ratio < e.cfg.MinBuySellRatio {
			return false, fmt.Sprintf("Buy/Sell ratio %.2f < Min %g", ratio, e.cfg.MinBuySellRatio)
		}
	}

	// 6. Volume spike. A positive threshold with literally zero 1h volume is
	// a hard failure; a zero/negative threshold disables the check entirely.
	if e.cfg.VolumeSpikeFactor > 0 {
		v1, v24 := pair.Volume.H1, pair.Volume.H24
		switch {
		case v1 == 0:
			return false, "No 1h volume for spike calc"
		case v24 > 0:
			spike := v1 / v24 * 24
			if spike < e.cfg.VolumeSpikeFactor {
				return false, fmt.Sprintf("No volume spike: %.1fx < %gx", spike, e.cfg.VolumeSpikeFactor)
			}
		}
	}

	// 7. Hard floor on 1h price change.
	if pair.PriceChange.H1 < hardPriceDropFloor {
		return false, fmt.Sprintf("Price drop (1h): %g%%", pair.PriceChange.H1)
	}

	// Holder count, only when the payload carries holder data.
	if pair.Holders != nil && pair.Holders.Total < e.cfg.MinHolderCount {
		return false, fmt.Sprintf("Insufficient holders: %d < %d", pair.Holders.Total, e.cfg.MinHolderCount)
	}

	return true, "Token passed primary checks"
}

// AllowedBySuffix applies the optional launchpad pre-filter: when enabled, the
// base token mint must end with the configured suffix. An enabled filter with
// an empty suffix is a misconfiguration; it is logged once and not enforced.
func (e *Engine) AllowedBySuffix(tokenAddress string) bool {
	if !e.cfg.PumpFunFilter {
		return true
	}
	if e.cfg.PumpFunSuffix == "" {
		if !e.warnedEmptySuffix {
			e.warnedEmptySuffix = true
			e.logger.Warn().Msg("suffix pre-filter enabled with empty suffix, skipping")
		}
		return true
	}
	return strings.HasSuffix(tokenAddress, e.cfg.PumpFunSuffix)
}

// usd formats a dollar amount without cents, grouping thousands.
func usd(v float64) string {
	neg := math.Signbit(v)
	s := strconv.FormatFloat(math.Abs(math.Round(v)), 'f', 0, 64)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
		if len(s) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
