package indicator

import (
	"math"

	"solana-trading-bot/internal/domain"
)

// ichimoku computes the Ichimoku Cloud at the newest bar. Unlike the other
// indicators it does not approximate over short series: if any component has
// no fully-populated window at the index it is read from, the whole cloud is
// omitted and callers treat cloud-derived signals as absent.
func (e *Engine) ichimoku(prices []float64) *domain.IchimokuCloud {
	n := len(prices)
	disp := e.cfg.IchimokuShift
	if disp < 0 {
		return nil
	}

	tenkan, ok := midpointAt(prices, n-1, e.cfg.IchimokuTenkan)
	if !ok {
		return nil
	}
	kijun, ok := midpointAt(prices, n-1, e.cfg.IchimokuKijun)
	if !ok {
		return nil
	}

	// The leading spans are shifted forward by the displacement, so their
	// value at the newest bar comes from disp bars back.
	src := n - 1 - disp
	tenkanSrc, ok := midpointAt(prices, src, e.cfg.IchimokuTenkan)
	if !ok {
		return nil
	}
	kijunSrc, ok := midpointAt(prices, src, e.cfg.IchimokuKijun)
	if !ok {
		return nil
	}
	spanA := (tenkanSrc + kijunSrc) / 2
	spanB, ok := midpointAt(prices, src, e.cfg.IchimokuSenkouB)
	if !ok {
		return nil
	}

	cloud := &domain.IchimokuCloud{
		TenkanSen:   tenkan,
		KijunSen:    kijun,
		SenkouSpanA: spanA,
		SenkouSpanB: spanB,
		CloudTop:    math.Max(spanA, spanB),
		CloudBottom: math.Min(spanA, spanB),
	}
	if spanA > spanB {
		cloud.CloudDirection = 1
	} else {
		cloud.CloudDirection = -1
	}

	// The lagging span shifts price backward by the displacement; for a
	// positive displacement it has no value at the newest bar, so the
	// confirmation signal only fires when one exists.
	if i := n - 1 + disp; i < n {
		v := prices[i]
		cloud.ChikouSpan = &v
	}

	return cloud
}

// midpointAt returns (max+min)/2 over the fully-populated window ending at
// index i, or false when the window does not fit.
func midpointAt(prices []float64, i, window int) (float64, bool) {
	if window <= 0 || i < 0 || i-window+1 < 0 || i >= len(prices) {
		return 0, false
	}
	lo, hi := prices[i-window+1], prices[i-window+1]
	for _, p := range prices[i-window+1 : i+1] {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return (hi + lo) / 2, true
}
