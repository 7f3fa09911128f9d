// Package indicator computes the technical-indicator set the decision engine
// consumes. Every indicator degrades gracefully when the series is shorter
// than its lookback window by averaging over all available points; Ichimoku
// is the exception and is omitted entirely on insufficient data.
package indicator

import (
	"fmt"
	"math"

	"solana-trading-bot/internal/config"
	"solana-trading-bot/internal/domain"
)

// Engine computes indicator sets with the configured windows.
type Engine struct {
	cfg *config.Config
}

// New creates an indicator engine.
func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Compute derives the full indicator set from aligned price and volume
// series, oldest first. Requires at least 2 points of each.
func (e *Engine) Compute(prices, volumes []float64) (*domain.IndicatorSet, error) {
	if len(prices) < 2 || len(volumes) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d prices and %d volumes", len(prices), len(volumes))
	}

	set := &domain.IndicatorSet{
		MA20: tailMean(prices, e.cfg.MAShortWindow),
		MA50: tailMean(prices, e.cfg.MALongWindow),
		RSI:  e.rsi(prices),
		ROC:  e.roc(prices),
	}

	// MACD line and its signal, both pandas-style adjusted EMAs.
	fast := ewma(prices, e.cfg.MACDFast)
	slow := ewma(prices, e.cfg.MACDSlow)
	macd := make([]float64, len(prices))
	for i := range prices {
		macd[i] = fast[i] - slow[i]
	}
	signal := ewma(macd, e.cfg.MACDSignal)
	set.MACD = macd[len(macd)-1]
	set.MACDSignal = signal[len(signal)-1]
	set.MACDHist = set.MACD - set.MACDSignal

	// Bollinger Bands over the trailing window.
	mean, std := tailMeanStd(prices, e.cfg.BollingerWindow)
	set.BBMiddle = mean
	set.BBUpper = mean + std*e.cfg.BollingerStd
	set.BBLower = mean - std*e.cfg.BollingerStd

	set.StochK, set.StochD = e.stochastic(prices)

	obv := obvSeries(prices, volumes)
	set.OBV = obv[len(obv)-1]
	if len(obv) > 1 {
		set.OBVChange = obv[len(obv)-1] - obv[len(obv)-2]
	}

	if avg := meanOf(volumes); avg != 0 {
		set.VolumeRatio = volumes[len(volumes)-1] / avg
	} else {
		set.VolumeRatio = 1
	}

	set.Ichimoku = e.ichimoku(prices)

	return set, nil
}

// rsi averages gains and losses over the trailing period. A zero average loss
// yields a relative strength of 0 and therefore RSI 0, mirroring the upstream
// scoring exactly even though an all-gain series reading as maximally
// oversold is counterintuitive.
func (e *Engine) rsi(prices []float64) float64 {
	gains := make([]float64, 0, len(prices)-1)
	losses := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		diff := prices[i] - prices[i-1]
		switch {
		case diff > 0:
			gains = append(gains, diff)
			losses = append(losses, 0)
		case diff < 0:
			gains = append(gains, 0)
			losses = append(losses, -diff)
		default:
			gains = append(gains, 0)
			losses = append(losses, 0)
		}
	}

	avgGain := tailMean(gains, e.cfg.RSIPeriod)
	avgLoss := tailMean(losses, e.cfg.RSIPeriod)

	rs := 0.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100 - 100/(1+rs)
}

// roc is the percent change against the price ROCWindow positions back, 0
// when the series is too short.
func (e *Engine) roc(prices []float64) float64 {
	n := len(prices)
	if n <= e.cfg.ROCWindow {
		return 0
	}
	base := prices[n-e.cfg.ROCWindow]
	if base == 0 {
		return 0
	}
	return (prices[n-1] - base) / base * 100
}

// stochastic computes %K at the newest bar and %D as the mean of %K over the
// trailing D window.
func (e *Engine) stochastic(prices []float64) (k, d float64) {
	n := len(prices)
	dWindow := e.cfg.StochDWindow
	if dWindow < 1 {
		dWindow = 1
	}
	if dWindow > n {
		dWindow = n
	}

	var sum float64
	for i := n - dWindow; i < n; i++ {
		ki := stochKAt(prices, i, e.cfg.StochKWindow)
		if i == n-1 {
			k = ki
		}
		sum += ki
	}
	d = sum / float64(dWindow)
	return k, d
}

// stochKAt computes %K for the bar at index i over the trailing window. A
// flat window (max == min) reads as neutral 50.
func stochKAt(prices []float64, i, window int) float64 {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	lo, hi := prices[start], prices[start]
	for _, p := range prices[start : i+1] {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	if hi == lo {
		return 50
	}
	return 100 * (prices[i] - lo) / (hi - lo)
}

// obvSeries is the cumulative on-balance volume, seeded with the first
// volume value.
func obvSeries(prices, volumes []float64) []float64 {
	obv := make([]float64, len(volumes))
	obv[0] = volumes[0]
	for i := 1; i < len(volumes); i++ {
		switch {
		case prices[i] > prices[i-1]:
			obv[i] = obv[i-1] + volumes[i]
		case prices[i] < prices[i-1]:
			obv[i] = obv[i-1] - volumes[i]
		default:
			obv[i] = obv[i-1]
		}
	}
	return obv
}

// ewma is the adjusted exponential moving average (pandas ewm semantics):
// each output is the decay-weighted mean of all points seen so far.
func ewma(xs []float64, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1)
	decay := 1 - alpha
	out := make([]float64, len(xs))
	var num, den float64
	for i, x := range xs {
		num = x + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// tailMean averages the trailing window, or the whole series when shorter.
func tailMean(xs []float64, window int) float64 {
	if len(xs) == 0 {
		return 0
	}
	if window > 0 && len(xs) > window {
		xs = xs[len(xs)-window:]
	}
	return meanOf(xs)
}

// tailMeanStd returns the mean and sample standard deviation of the trailing
// window. A window of one point has zero deviation.
func tailMeanStd(xs []float64, window int) (mean, std float64) {
	if window > 0 && len(xs) > window {
		xs = xs[len(xs)-window:]
	}
	mean = meanOf(xs)
	if len(xs) < 2 {
		return mean, 0
	}
	var sum float64
	for _, x := range xs {
		sum += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sum / float64(len(xs)-1))
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
