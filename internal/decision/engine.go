// Package decision turns an indicator set into a buy/no-buy verdict with a
// confidence percentage. The engine never returns an error: computation
// problems surface as a no-trade verdict with an error-tagged reason.
package decision

import (
	"fmt"

	"solana-trading-bot/internal/domain"
)

// Signal thresholds.
const (
	rsiOversold       = 30
	volumeSpikeRatio  = 1.5
	stochOversold     = 20
	moderateThreshold = 65 // minimum confidence percent for a moderate buy
)

// Verdict is the outcome of one trade evaluation.
type Verdict struct {
	Trade      bool
	Confidence float64 // percent of signals that fired
	Reason     string
}

// Engine evaluates entry signals.
type Engine struct{}

// New creates a decision engine.
func New() *Engine {
	return &Engine{}
}

// ShouldTrade evaluates the signal set against the current price.
//
// Tiers: a strong buy needs all four primary signals, both Ichimoku
// confirmations, and at least one oversold signal; a moderate buy needs the
// primaries plus either group and confidence above the threshold.
func (e *Engine) ShouldTrade(set *domain.IndicatorSet, currentPrice float64) Verdict {
	if set == nil {
		return Verdict{Reason: "Analysis error: no indicator data"}
	}

	signals := []bool{
		set.MA20 > set.MA50,                           // trend up
		set.RSI < rsiOversold,                         // RSI oversold
		set.VolumeRatio > volumeSpikeRatio,            // volume spike
		set.MACDHist > 0 && set.MACD > set.MACDSignal, // MACD bullish
		currentPrice < set.BBLower,                    // below lower band
		set.StochK < stochOversold && set.StochD < stochOversold,
		set.OBVChange > 0,
		set.ROC > 0,
	}

	var priceAboveCloud, bullishCloud, tenkanKijunCross, chikouConfirmation bool
	if c := set.Ichimoku; c != nil {
		priceAboveCloud = currentPrice > c.CloudTop
		bullishCloud = c.CloudDirection > 0
		tenkanKijunCross = c.TenkanSen > c.KijunSen && c.TenkanSen > c.CloudTop
		chikouConfirmation = c.ChikouSpan != nil && *c.ChikouSpan > currentPrice
	}
	signals = append(signals, priceAboveCloud, bullishCloud, tenkanKijunCross, chikouConfirmation)

	fired := 0
	for _, s := range signals {
		if s {
			fired++
		}
	}
	confidence := float64(fired) / float64(len(signals)) * 100

	trendUp, macdBullish, volumeSpike := signals[0], signals[3], signals[2]
	primary := trendUp && macdBullish && volumeSpike && priceAboveCloud
	ichimokuPair := bullishCloud && tenkanKijunCross
	secondary := signals[1] || signals[4] || signals[5] // any oversold signal

	switch {
	case primary && ichimokuPair && secondary:
		return Verdict{
			Trade:      true,
			Confidence: confidence,
			Reason:     fmt.Sprintf("Strong buy signal (%.1f%% confidence)", confidence),
		}
	case primary && (ichimokuPair || secondary) && confidence > moderateThreshold:
		return Verdict{
			Trade:      true,
			Confidence: confidence,
			Reason:     fmt.Sprintf("Moderate buy signal (%.1f%% confidence)", confidence),
		}
	default:
		return Verdict{
			Confidence: confidence,
			Reason:     fmt.Sprintf("Insufficient signals (%.1f%% confidence)", confidence),
		}
	}
}
