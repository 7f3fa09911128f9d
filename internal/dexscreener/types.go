package dexscreener

import (
	"fmt"
	"strconv"
)

// pairsResponse is the envelope returned by the pairs and tokens endpoints.
type pairsResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Pair is one trading pair as reported by DexScreener. Fields the admission
// filter treats as "must be present" are pointers so that absence survives
// decoding and can be rejected with a precise reason; fields the upstream
// treats as zero-defaulted are plain values.
type Pair struct {
	ChainID       string       `json:"chainId"`
	PairAddress   string       `json:"pairAddress"`
	BaseToken     Token        `json:"baseToken"`
	QuoteToken    Token        `json:"quoteToken"`
	PriceUSD      string       `json:"priceUsd"`
	FDV           *float64     `json:"fdv"`
	PairCreatedAt *int64       `json:"pairCreatedAt"` // epoch milliseconds
	Liquidity     *Liquidity   `json:"liquidity"`
	Txns          Transactions `json:"txns"`
	Volume        Volume       `json:"volume"`
	PriceChange   PriceChange  `json:"priceChange"`
	Holders       *Holders     `json:"holders"`
}

// Token identifies one side of a pair.
type Token struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

// Liquidity carries pooled value in USD.
type Liquidity struct {
	USD *float64 `json:"usd"`
}

// Transactions buckets buy/sell counts by window.
type Transactions struct {
	H1 BuysSells `json:"h1"`
}

// BuysSells is a buy/sell counter pair.
type BuysSells struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Volume buckets traded USD volume by window.
type Volume struct {
	H1  float64 `json:"h1"`
	H24 float64 `json:"h24"`
}

// PriceChange buckets percent price change by window.
type PriceChange struct {
	H1 float64 `json:"h1"`
}

// Holders carries holder statistics when the payload includes them.
type Holders struct {
	Total int `json:"total"`
}

// Price parses the priceUsd field. DexScreener serializes prices as strings.
func (p *Pair) Price() (float64, error) {
	if p.PriceUSD == "" {
		return 0, fmt.Errorf("pair %s: missing priceUsd", p.PairAddress)
	}
	v, err := strconv.ParseFloat(p.PriceUSD, 64)
	if err != nil {
		return 0, fmt.Errorf("pair %s: invalid priceUsd %q: %w", p.PairAddress, p.PriceUSD, err)
	}
	return v, nil
}
