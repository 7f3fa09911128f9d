package domain

import "time"

// Exit reasons for closed positions.
const (
	ExitReasonStopLoss   = "STOP_LOSS"
	ExitReasonTakeProfit = "TAKE_PROFIT"
)

// Position is a simulated open trade. StopLoss only ever ratchets upward once
// the position is open: every management cycle recomputes it as
// max(stored, HighestPrice * (1 - trailing_pct)). TakeProfit is fixed at entry.
type Position struct {
	TokenAddress string    `json:"token_address"`
	Symbol       string    `json:"symbol"`
	EntryPrice   float64   `json:"entry_price"`
	Size         float64   `json:"amount"` // denominated in SOL
	StopLoss     float64   `json:"stop_loss"`
	TakeProfit   float64   `json:"take_profit"`
	HighestPrice float64   `json:"highest_price"` // peak since entry, seeded with EntryPrice
	OpenedAt     time.Time `json:"opened_at"`
}

// ClosedPosition records a realized trade in the position history.
type ClosedPosition struct {
	Position
	ExitPrice     float64   `json:"exit_price"`
	ExitReason    string    `json:"exit_reason"`
	ProfitLossPct float64   `json:"profit_loss_pct"`
	ClosedAt      time.Time `json:"closed_at"`
}

// PerformanceMetrics aggregates process-wide trade statistics. Counters are
// reset only by a process restart; nothing is persisted.
type PerformanceMetrics struct {
	Scans            int64   `json:"scans"`
	PotentialTrades  int64   `json:"potential_trades"`
	ExecutedTrades   int64   `json:"executed_trades"`
	SuccessfulTrades int64   `json:"successful_trades"`
	FailedTrades     int64   `json:"failed_trades"`
	TotalProfitLoss  float64 `json:"total_profit_loss"` // cumulative percent P/L
	WinRate          float64 `json:"win_rate"`          // percent
}
