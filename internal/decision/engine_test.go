package decision

import (
	"strings"
	"testing"

	"solana-trading-bot/internal/domain"
)

// bullishBase builds an indicator set where the four primary signals fire
// for a current price of 100: uptrend, MACD bullish, volume spike, and price
// above the cloud.
func bullishBase() *domain.IndicatorSet {
	return &domain.IndicatorSet{
		MA20:        105,
		MA50:        100,
		RSI:         50,
		VolumeRatio: 2.0,
		MACD:        1.5,
		MACDSignal:  1.0,
		MACDHist:    0.5,
		BBUpper:     120,
		BBMiddle:    100,
		BBLower:     80,
		StochK:      50,
		StochD:      50,
		OBV:         5000,
		OBVChange:   100,
		ROC:         3,
		Ichimoku: &domain.IchimokuCloud{
			TenkanSen:      98,
			KijunSen:       99,
			SenkouSpanA:    95,
			SenkouSpanB:    90,
			CloudTop:       95,
			CloudBottom:    90,
			CloudDirection: 1,
		},
	}
}

func TestShouldTrade_StrongBuy(t *testing.T) {
	set := bullishBase()
	set.RSI = 25                  // secondary: oversold
	set.Ichimoku.TenkanSen = 100  // cross above the base line
	set.Ichimoku.KijunSen = 96    // and above the cloud top

	v := New().ShouldTrade(set, 100)
	if !v.Trade {
		t.Fatalf("expected trade, got: %s", v.Reason)
	}
	if !strings.HasPrefix(v.Reason, "Strong buy signal") {
		t.Errorf("expected strong tier, got: %s", v.Reason)
	}
	// trend, rsi, volume, macd, obv, roc, above-cloud, bullish-cloud,
	// cross: 9 of 12.
	if v.Confidence != 75 {
		t.Errorf("Confidence = %v, want 75", v.Confidence)
	}
	if !strings.Contains(v.Reason, "75.0% confidence") {
		t.Errorf("reason should carry the confidence: %s", v.Reason)
	}
}

func TestShouldTrade_ModerateBuy(t *testing.T) {
	// Primaries plus a secondary oversold signal but no Ichimoku cross;
	// 8 of 12 signals puts confidence just over the threshold.
	set := bullishBase()
	set.RSI = 25

	v := New().ShouldTrade(set, 100)
	if !v.Trade {
		t.Fatalf("expected trade, got: %s", v.Reason)
	}
	if !strings.HasPrefix(v.Reason, "Moderate buy signal") {
		t.Errorf("expected moderate tier, got: %s", v.Reason)
	}
}

func TestShouldTrade_ModerateBlockedByConfidence(t *testing.T) {
	// Primaries plus one secondary, but everything else quiet: 6 of 12 is
	// below the moderate threshold.
	set := bullishBase()
	set.RSI = 25
	set.OBVChange = -10
	set.Ichimoku.CloudDirection = -1

	v := New().ShouldTrade(set, 100)
	if v.Trade {
		t.Fatalf("expected no trade at 50%% confidence, got: %s", v.Reason)
	}
	if !strings.HasPrefix(v.Reason, "Insufficient signals") {
		t.Errorf("unexpected reason: %s", v.Reason)
	}
	if v.Confidence != 50 {
		t.Errorf("Confidence = %v, want 50", v.Confidence)
	}
}

func TestShouldTrade_PrimariesRequired(t *testing.T) {
	// Break one primary at a time; no tier can fire without all four.
	breakers := map[string]func(*domain.IndicatorSet){
		"trend":       func(s *domain.IndicatorSet) { s.MA20 = 90 },
		"macd":        func(s *domain.IndicatorSet) { s.MACDHist = -0.1 },
		"volume":      func(s *domain.IndicatorSet) { s.VolumeRatio = 1.0 },
		"above cloud": func(s *domain.IndicatorSet) { s.Ichimoku.CloudTop = 150 },
	}
	for name, brk := range breakers {
		set := bullishBase()
		set.RSI = 25
		set.Ichimoku.TenkanSen = 100
		set.Ichimoku.KijunSen = 96
		brk(set)

		if v := New().ShouldTrade(set, 100); v.Trade {
			t.Errorf("%s broken: expected no trade, got %s", name, v.Reason)
		}
	}
}

func TestShouldTrade_MissingIchimokuDisablesCloudSignals(t *testing.T) {
	// Without a cloud the price-above-cloud primary can never fire, so no
	// buy is possible regardless of the other signals.
	set := bullishBase()
	set.Ichimoku = nil
	set.RSI = 25

	v := New().ShouldTrade(set, 100)
	if v.Trade {
		t.Fatalf("expected no trade without Ichimoku, got: %s", v.Reason)
	}
}

func TestShouldTrade_NilSet(t *testing.T) {
	v := New().ShouldTrade(nil, 100)
	if v.Trade {
		t.Fatal("expected no trade for nil indicator set")
	}
	if !strings.HasPrefix(v.Reason, "Analysis error") {
		t.Errorf("expected error-tagged reason, got: %s", v.Reason)
	}
}

func TestShouldTrade_ChikouConfirmation(t *testing.T) {
	// A lagging-span value above the current price contributes to
	// confidence.
	set := bullishBase()
	set.RSI = 25
	set.Ichimoku.TenkanSen = 100
	set.Ichimoku.KijunSen = 96

	chikou := 110.0
	set.Ichimoku.ChikouSpan = &chikou

	v := New().ShouldTrade(set, 100)
	if v.Confidence <= 75 {
		t.Errorf("Confidence = %v, want > 75 with chikou confirmation", v.Confidence)
	}
}
