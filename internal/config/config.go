// Package config loads typed configuration from the environment.
// Every recognized variable has an explicit parser and default; a value that
// is present but unparseable fails Load instead of silently falling back.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the immutable process configuration. It is constructed once at
// startup and injected into component constructors; components never read the
// environment themselves.
type Config struct {
	// Endpoints
	DexScreenerAPI  string
	ChainID         string
	SolanaRPCURL    string
	RugCheckAPI     string // token report base, e.g. https://api.rugcheck.xyz/v1/tokens
	RugCheckAuthURL string

	// Admission filter thresholds
	TargetMarketCap    float64 // inclusive floor on FDV
	MaxMarketCap       float64 // exclusive ceiling on FDV
	MaxTokenAgeHours   float64
	MinLiquidityUSD    float64
	MinTransactions    int
	MinBuySellRatio    float64
	VolumeSpikeFactor  float64 // <= 0 disables the spike check
	MinHolderCount     int
	PumpFunFilter      bool   // restrict scanning to launchpad-suffixed mints
	PumpFunSuffix      string // literal mint suffix, e.g. "pump"
	CandidateRetention time.Duration

	// RugCheck screening
	RugCheckScoreThreshold float64
	RugCheckCriticalRisks  []string
	RugCheckJWT            string // static bearer token, optional
	RugCheckPrivateKeyHex  string // 32-byte ed25519 seed, hex encoded
	RugCheckWallet         string // base58 wallet address matching the seed

	// Risk management
	StopLossPct      float64 // initial fixed stop, percent below entry
	TrailingStopPct  float64 // percent below peak for the trailing stop
	TakeProfitPct    float64 // percent above entry
	MaxPositionSize  float64 // fraction of wallet balance per trade

	// Indicator parameters
	MAShortWindow   int
	MALongWindow    int
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerWindow int
	BollingerStd    float64
	StochKWindow    int
	StochDWindow    int
	ROCWindow       int
	IchimokuTenkan  int
	IchimokuKijun   int
	IchimokuSenkouB int
	IchimokuShift   int

	// Loop pacing and transport
	ScanInterval    time.Duration
	TradeInterval   time.Duration
	HTTPTimeout     time.Duration
	DexScreenerRPS  float64 // requests per second budget for DexScreener

	// Serving and logging
	ListenAddr string
	LogLevel   string
	LogPretty  bool
}

// Load reads configuration from the environment, after best-effort loading a
// local .env file. It returns an error naming every variable that failed to
// parse.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	p := &parser{}

	cfg := &Config{
		DexScreenerAPI:  p.str("DEXSCREENER_API", "https://api.dexscreener.com/latest/dex"),
		ChainID:         p.str("CHAIN_ID", "solana"),
		SolanaRPCURL:    p.str("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RugCheckAPI:     p.str("RUGCHECK_API_ENDPOINT", "https://api.rugcheck.xyz/v1/tokens"),
		RugCheckAuthURL: p.str("RUGCHECK_AUTH_URL", "https://api.rugcheck.xyz/v1/auth/login/solana"),

		TargetMarketCap:    p.float("TARGET_MARKET_CAP_TO_SCAN", 30000),
		MaxMarketCap:       p.float("MAX_MARKET_CAP", 750000),
		MaxTokenAgeHours:   p.float("MAX_TOKEN_AGE_HOURS", 6),
		MinLiquidityUSD:    p.float("MIN_LIQUIDITY", 25000),
		MinTransactions:    p.integer("MIN_TRANSACTIONS", 75),
		MinBuySellRatio:    p.float("MIN_BUY_SELL_RATIO", 0.65),
		VolumeSpikeFactor:  p.float("VOLUME_SPIKE_THRESHOLD", 2.5),
		MinHolderCount:     p.integer("MIN_HOLDER_COUNT", 100),
		PumpFunFilter:      p.boolean("PUMPFUN_FILTER_ENABLED", false),
		PumpFunSuffix:      p.str("PUMPFUN_ADDRESS_SUFFIX", "pump"),
		CandidateRetention: p.duration("CANDIDATE_RETENTION", time.Hour),

		RugCheckScoreThreshold: p.float("RUGCHECK_SCORE_THRESHOLD", 50),
		RugCheckCriticalRisks: p.list("RUGCHECK_CRITICAL_RISK_NAMES",
			"Freeze Authority still enabled,Mint Authority still enabled,Copycat token"),
		RugCheckJWT:           p.str("RUGCHECK_JWT_TOKEN", ""),
		RugCheckPrivateKeyHex: p.str("RUGCHECK_WALLET_PRIVATE_KEY", ""),
		RugCheckWallet:        p.str("RUGCHECK_WALLET_PUBLIC_KEY", ""),

		StopLossPct:     p.float("STOP_LOSS_PERCENTAGE", 12),
		TrailingStopPct: p.float("TRAILING_STOP_LOSS_PERCENTAGE", 5),
		TakeProfitPct:   p.float("TAKE_PROFIT_PERCENTAGE", 15),
		MaxPositionSize: p.float("MAX_POSITION_SIZE", 0.1),

		MAShortWindow:   p.integer("MA_SHORT_WINDOW", 20),
		MALongWindow:    p.integer("MA_LONG_WINDOW", 50),
		RSIPeriod:       p.integer("RSI_PERIOD", 14),
		MACDFast:        p.integer("MACD_FAST", 12),
		MACDSlow:        p.integer("MACD_SLOW", 26),
		MACDSignal:      p.integer("MACD_SIGNAL", 9),
		BollingerWindow: p.integer("BOLLINGER_WINDOW", 20),
		BollingerStd:    p.float("BOLLINGER_NUM_STD", 2),
		StochKWindow:    p.integer("STOCH_K_WINDOW", 14),
		StochDWindow:    p.integer("STOCH_D_WINDOW", 3),
		ROCWindow:       p.integer("ROC_WINDOW", 12),
		IchimokuTenkan:  p.integer("ICHIMOKU_TENKAN", 9),
		IchimokuKijun:   p.integer("ICHIMOKU_KIJUN", 26),
		IchimokuSenkouB: p.integer("ICHIMOKU_SENKOU_B", 52),
		IchimokuShift:   p.integer("ICHIMOKU_DISPLACEMENT", 26),

		ScanInterval:   p.duration("SCAN_INTERVAL", 60*time.Second),
		TradeInterval:  p.duration("TRADE_INTERVAL", 60*time.Second),
		HTTPTimeout:    p.duration("HTTP_TIMEOUT", 15*time.Second),
		DexScreenerRPS: p.float("DEXSCREENER_RPS", 4),

		ListenAddr: p.str("LISTEN_ADDR", ":8000"),
		LogLevel:   p.str("LOG_LEVEL", "info"),
		LogPretty:  p.boolean("LOG_PRETTY", false),
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.MaxMarketCap <= c.TargetMarketCap {
		errs = append(errs, fmt.Errorf("MAX_MARKET_CAP (%.0f) must exceed TARGET_MARKET_CAP_TO_SCAN (%.0f)",
			c.MaxMarketCap, c.TargetMarketCap))
	}
	if c.TrailingStopPct <= 0 || c.TrailingStopPct >= 100 {
		errs = append(errs, fmt.Errorf("TRAILING_STOP_LOSS_PERCENTAGE must be in (0, 100), got %.2f", c.TrailingStopPct))
	}
	if c.StopLossPct <= 0 || c.StopLossPct >= 100 {
		errs = append(errs, fmt.Errorf("STOP_LOSS_PERCENTAGE must be in (0, 100), got %.2f", c.StopLossPct))
	}
	if c.MACDSlow <= c.MACDFast {
		errs = append(errs, fmt.Errorf("MACD_SLOW (%d) must exceed MACD_FAST (%d)", c.MACDSlow, c.MACDFast))
	}
	if (c.RugCheckPrivateKeyHex == "") != (c.RugCheckWallet == "") {
		errs = append(errs, errors.New("RUGCHECK_WALLET_PRIVATE_KEY and RUGCHECK_WALLET_PUBLIC_KEY must be set together"))
	}
	return errors.Join(errs...)
}

// parser accumulates parse failures across the whole schema so that Load can
// report all of them at once.
type parser struct {
	errs []error
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
}

func (p *parser) str(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

func (p *parser) float(name string, def float64) float64 {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid float %q", name, v))
		return def
	}
	return f
}

func (p *parser) integer(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", name, v))
		return def
	}
	return n
}

func (p *parser) boolean(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q", name, v))
		return def
	}
	return b
}

func (p *parser) duration(name string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", name, v))
		return def
	}
	return d
}

// list parses a comma-separated value, trimming whitespace around entries.
func (p *parser) list(name, def string) []string {
	raw := p.str(name, def)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
