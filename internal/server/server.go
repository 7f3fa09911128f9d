// Package server exposes the bot's runtime state over HTTP: a REST status
// API, the admitted candidate set, Prometheus metrics, and a websocket
// stream pushing status snapshots on an interval.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solana-trading-bot/internal/config"
	"solana-trading-bot/internal/domain"
	"solana-trading-bot/internal/observability"
	"solana-trading-bot/internal/storage"
)

// How often the websocket stream pushes a fresh status snapshot.
const statusPushInterval = 5 * time.Second

const shutdownTimeout = 10 * time.Second

// PerformanceSource reports the aggregate trade statistics.
type PerformanceSource interface {
	Metrics() domain.PerformanceMetrics
}

// CandidateSource lists the tokens currently admitted by the scanner.
type CandidateSource interface {
	Potential(ctx context.Context) []*domain.Candidate
}

// PriceSource quotes the current USD price of a token.
type PriceSource interface {
	TokenPrice(ctx context.Context, tokenAddress string) (float64, error)
}

// PositionStatus is an open position enriched with the live quote.
type PositionStatus struct {
	domain.Position
	CurrentPrice    float64 `json:"current_price,omitempty"`
	UnrealizedPLPct float64 `json:"unrealized_pl_pct,omitempty"`
}

// StatusResponse is the JSON body for /api/status and the websocket stream.
type StatusResponse struct {
	Status          string                    `json:"status"`
	Uptime          string                    `json:"uptime"`
	StartedAt       time.Time                 `json:"started_at"`
	Performance     domain.PerformanceMetrics `json:"performance"`
	OpenPositions   []PositionStatus          `json:"open_positions"`
	ClosedPositions []*domain.ClosedPosition  `json:"closed_positions"`
}

// Options configures the API server.
type Options struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Performance PerformanceSource
	Candidates  CandidateSource
	Positions   storage.PositionStore
	Prices      PriceSource
}

// Server serves the status API.
type Server struct {
	cfg         *config.Config
	logger      zerolog.Logger
	performance PerformanceSource
	candidates  CandidateSource
	positions   storage.PositionStore
	prices      PriceSource
	router      *mux.Router
	upgrader    websocket.Upgrader
	startedAt   time.Time
}

// New creates the API server and mounts its routes.
func New(opts Options) *Server {
	s := &Server{
		cfg:         opts.Config,
		logger:      opts.Logger.With().Str("component", "server").Logger(),
		performance: opts.Performance,
		candidates:  opts.Candidates,
		positions:   opts.Positions,
		prices:      opts.Prices,
		router:      mux.NewRouter(),
		upgrader:    websocket.Upgrader{},
		startedAt:   time.Now(),
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/candidates", s.handleCandidates).Methods(http.MethodGet)
	s.router.HandleFunc("/api/ws", s.handleWebsocket).Methods(http.MethodGet)
	s.router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	return s
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("status API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.snapshot(r.Context()))
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	tokens := s.candidates.Potential(r.Context())
	if tokens == nil {
		tokens = []*domain.Candidate{}
	}
	s.writeJSON(w, tokens)
}

// handleWebsocket pushes a status snapshot immediately and then on every
// tick until the client goes away.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(statusPushInterval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(s.snapshot(r.Context())); err != nil {
			return
		}
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// snapshot assembles the full status view. Open positions are quoted live;
// a failed quote leaves CurrentPrice at zero rather than failing the whole
// response.
func (s *Server) snapshot(ctx context.Context) StatusResponse {
	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.startedAt).String(),
		StartedAt:       s.startedAt,
		Performance:     s.performance.Metrics(),
		OpenPositions:   []PositionStatus{},
		ClosedPositions: []*domain.ClosedPosition{},
	}

	open, err := s.positions.OpenPositions(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reading open positions")
	}
	for _, p := range open {
		ps := PositionStatus{Position: *p}
		price, err := s.prices.TokenPrice(ctx, p.TokenAddress)
		if err != nil {
			s.logger.Warn().Err(err).Str("token", p.TokenAddress).Msg("quoting open position")
		} else if price > 0 {
			ps.CurrentPrice = price
			ps.UnrealizedPLPct = (price - p.EntryPrice) / p.EntryPrice * 100
		}
		resp.OpenPositions = append(resp.OpenPositions, ps)
	}

	closed, err := s.positions.ClosedPositions(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reading position history")
	} else {
		resp.ClosedPositions = closed
	}

	return resp
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("encoding response")
	}
}
