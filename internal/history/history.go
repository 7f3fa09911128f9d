// Package history supplies the historical price and volume series the
// indicator engine consumes. A real implementation would pull OHLCV candles
// from a market-data API; the fixture provider returns a fixed series so the
// pipeline runs end to end in simulation.
package history

import "context"

// Provider returns aligned price and volume series for a token, oldest first.
type Provider interface {
	Prices(ctx context.Context, tokenAddress string) ([]float64, error)
	Volumes(ctx context.Context, tokenAddress string) ([]float64, error)
}

// Fixture serves a fixed 20-point series for every token.
type Fixture struct{}

// NewFixture creates the fixture provider.
func NewFixture() *Fixture {
	return &Fixture{}
}

// Prices returns the fixed price series.
func (Fixture) Prices(_ context.Context, _ string) ([]float64, error) {
	return []float64{
		100.0, 102.0, 101.5, 103.0, 102.5, 104.0, 105.0, 103.5, 106.0, 107.0,
		105.0, 104.5, 106.5, 108.0, 107.0, 109.0, 110.0, 108.5, 109.5, 112.0,
	}, nil
}

// Volumes returns the fixed volume series, aligned with Prices.
func (Fixture) Volumes(_ context.Context, _ string) ([]float64, error) {
	return []float64{
		1000.0, 1200.0, 1100.0, 1300.0, 1400.0, 1500.0, 1350.0, 1600.0, 1700.0, 1550.0,
		1450.0, 1650.0, 1800.0, 1750.0, 1900.0, 2000.0, 1850.0, 1950.0, 2200.0, 2100.0,
	}, nil
}

var _ Provider = Fixture{}
