package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Candidate is a token/pair admitted by the scanner. A Candidate exists only
// if the pair passed every stage of the admission filter chain plus the
// RugCheck safety screen on the scan iteration that discovered it.
type Candidate struct {
	Address       string    `json:"address"`      // base token mint
	PairAddress   string    `json:"pair_address"` // pool/pair address
	Symbol        string    `json:"symbol"`
	PriceUSD      float64   `json:"price"`
	LiquidityUSD  float64   `json:"liquidity"`
	Volume24h     float64   `json:"volume_24h"`
	Volume1h      float64   `json:"volume_1h"`
	Buys1h        int       `json:"buys_1h"`
	Sells1h       int       `json:"sells_1h"`
	BuySellRatio  float64   `json:"buy_sell_ratio"` // +Inf when sells are zero
	FDV           float64   `json:"fdv"`
	PairCreatedAt time.Time `json:"pair_created_at"`
	PriceChange1h float64   `json:"price_change_1h"`
	Holders       int       `json:"holders"` // 0 when the payload carried no holder data

	Risk      *RiskAssessment  `json:"risk,omitempty"`
	Sentiment *SentimentResult `json:"sentiment,omitempty"`

	DiscoveredAt time.Time `json:"discovered_at"`
}

// MarshalJSON serializes an infinite buy/sell ratio as null; IEEE infinities
// have no JSON representation and would fail the whole encode.
func (c Candidate) MarshalJSON() ([]byte, error) {
	type alias Candidate
	out := struct {
		alias
		BuySellRatio any `json:"buy_sell_ratio"`
	}{alias: alias(c), BuySellRatio: c.BuySellRatio}
	if math.IsInf(c.BuySellRatio, 0) {
		out.BuySellRatio = nil
	}
	return json.Marshal(out)
}

// ComputeBuySellRatio returns buys/sells, treating zero sells as an
// infinitely buy-heavy pair.
func ComputeBuySellRatio(buys, sells int) float64 {
	if sells == 0 {
		return math.Inf(1)
	}
	return float64(buys) / float64(sells)
}

// RiskAssessment is the outcome of one RugCheck report lookup.
type RiskAssessment struct {
	IsSafe          bool       `json:"is_safe"`
	Score           *float64   `json:"score,omitempty"`
	ScoreNormalised *float64   `json:"score_normalised,omitempty"`
	Risks           []RiskFlag `json:"risks,omitempty"`
	// RisksMalformed marks a risks field that was present but not a list.
	// A wholly absent risks field leaves Risks nil and RisksMalformed false.
	RisksMalformed bool     `json:"risks_malformed,omitempty"`
	Reasons        []string `json:"reasons,omitempty"`
	APIError       string   `json:"api_error,omitempty"`
}

// RiskFlag is one named risk reported by the safety API.
type RiskFlag struct {
	Name        string `json:"name"`
	Level       string `json:"level,omitempty"`
	Description string `json:"description,omitempty"`
}

// SentimentResult is a social-sentiment reading for a token.
// The current provider is a placeholder returning a neutral baseline.
type SentimentResult struct {
	Score         float64 `json:"sentiment_score"`
	Label         string  `json:"sentiment"`
	PostsAnalyzed int     `json:"posts_analyzed"`
	Source        string  `json:"source"`
}
