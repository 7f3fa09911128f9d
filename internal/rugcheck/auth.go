package rugcheck

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"solana-trading-bot/internal/observability"
)

// signInMessage is the canonical message RugCheck expects to be signed.
const signInMessage = "Sign-in to Rugcheck.xyz"

// attemptState tracks the one-shot dynamic token generation.
type attemptState int

const (
	attemptUnstarted attemptState = iota
	attemptSucceeded
	attemptFailed
)

// AuthConfig configures a TokenProvider.
type AuthConfig struct {
	AuthURL       string
	StaticToken   string // pre-provisioned JWT, used as-is or as fallback
	PrivateKeyHex string // 32-byte ed25519 seed, hex encoded
	Wallet        string // base58 wallet address claimed in the sign-in message
	HTTPClient    *http.Client
	Metrics       *observability.Metrics
}

// TokenProvider holds the bearer token for the RugCheck API. When signing
// credentials are configured it performs the sign-in exchange exactly once per
// process lifetime; failure falls back to the static token, or to
// unauthenticated requests when there is none.
type TokenProvider struct {
	cfg    AuthConfig
	client *http.Client
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state attemptState
	token string
}

// NewTokenProvider creates a TokenProvider seeded with the static token.
func NewTokenProvider(cfg AuthConfig, logger zerolog.Logger) *TokenProvider {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenProvider{
		cfg:    cfg,
		client: client,
		logger: logger.With().Str("component", "rugcheck_auth").Logger(),
		now:    time.Now,
		token:  cfg.StaticToken,
	}
}

// Token returns the current bearer token, empty when operating
// unauthenticated. The first call with signing credentials configured runs
// the sign-in exchange; the transition out of the unstarted state happens
// under the lock, so concurrent callers cannot race into a second attempt.
func (p *TokenProvider) Token(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != attemptUnstarted || p.cfg.PrivateKeyHex == "" || p.cfg.Wallet == "" {
		return p.token
	}

	p.state = attemptFailed
	token, err := p.signIn(ctx)
	if err != nil {
		// Static token, if any, stays in effect.
		p.logger.Warn().Err(err).Msg("dynamic token generation failed, falling back")
		p.countAttempt("failure")
		return p.token
	}

	p.state = attemptSucceeded
	p.token = token
	p.countAttempt("success")
	p.logExpiry(token)
	return p.token
}

func (p *TokenProvider) countAttempt(outcome string) {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.AuthAttempts.WithLabelValues(outcome).Inc()
	}
}

// Attempted reports whether dynamic generation has been tried this process
// lifetime. It stays false when only a static token is configured.
func (p *TokenProvider) Attempted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != attemptUnstarted
}

func (p *TokenProvider) signIn(ctx context.Context) (string, error) {
	seed, err := hex.DecodeString(p.cfg.PrivateKeyHex)
	if err != nil {
		return "", fmt.Errorf("decode private key hex: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("private key seed is %d bytes, want %d", len(seed), ed25519.SeedSize)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	derived := base58.Encode(priv.Public().(ed25519.PublicKey))
	if derived != p.cfg.Wallet {
		p.logger.Warn().
			Str("configured", p.cfg.Wallet).
			Str("derived", derived).
			Msg("wallet address does not match the signing key")
	}

	signature := ed25519.Sign(priv, []byte(signInMessage))
	sigData := make([]int, len(signature))
	for i, b := range signature {
		sigData[i] = int(b)
	}

	body, err := json.Marshal(signInRequest{
		Message: signInMessagePayload{
			Message:   signInMessage,
			PublicKey: p.cfg.Wallet,
			Timestamp: p.now().UnixMilli(),
		},
		Signature: signInSignature{Data: sigData, Type: "ed25519"},
		Wallet:    p.cfg.Wallet,
	})
	if err != nil {
		return "", fmt.Errorf("marshal sign-in request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.AuthURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign-in call: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign-in status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var parsed signInResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode sign-in response: %w", err)
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("sign-in response missing token field")
	}
	return parsed.Token, nil
}

// logExpiry reads the exp claim without verifying the signature; the token is
// opaque to us and only the server can verify it.
func (p *TokenProvider) logExpiry(token string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		p.logger.Debug().Err(err).Msg("token is not a parseable JWT")
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		p.logger.Info().Msg("obtained RugCheck token (no expiry claim)")
		return
	}
	p.logger.Info().Time("expires_at", exp.Time).Msg("obtained RugCheck token")
}

type signInRequest struct {
	Message   signInMessagePayload `json:"message"`
	Signature signInSignature      `json:"signature"`
	Wallet    string               `json:"wallet"`
}

type signInMessagePayload struct {
	Message   string `json:"message"`
	PublicKey string `json:"publicKey"`
	Timestamp int64  `json:"timestamp"`
}

// signInSignature carries the signature as a list of byte values; a []byte
// would marshal to base64, which the endpoint does not accept.
type signInSignature struct {
	Data []int  `json:"data"`
	Type string `json:"type"`
}

type signInResponse struct {
	Token string `json:"token"`
}
