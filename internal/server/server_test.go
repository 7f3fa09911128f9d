package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solana-trading-bot/internal/config"
	"solana-trading-bot/internal/domain"
	"solana-trading-bot/internal/storage/memory"
)

type fakePerformance struct {
	m domain.PerformanceMetrics
}

func (f *fakePerformance) Metrics() domain.PerformanceMetrics { return f.m }

type fakeCandidates struct {
	tokens []*domain.Candidate
}

func (f *fakeCandidates) Potential(_ context.Context) []*domain.Candidate { return f.tokens }

type fakeQuotes struct {
	prices map[string]float64
	err    error
}

func (f *fakeQuotes) TokenPrice(_ context.Context, addr string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.prices[addr], nil
}

func newTestServer(t *testing.T, perf *fakePerformance, candidates *fakeCandidates, store *memory.PositionStore, quotes *fakeQuotes) *httptest.Server {
	t.Helper()
	s := New(Options{
		Config:      &config.Config{ListenAddr: ":0"},
		Logger:      zerolog.Nop(),
		Performance: perf,
		Candidates:  candidates,
		Positions:   store,
		Prices:      quotes,
	})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d, want 200", url, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding %s response failed: %v", url, err)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakePerformance{}, &fakeCandidates{}, memory.NewPositionStore(), &fakeQuotes{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStatus_EnrichesOpenPositions(t *testing.T) {
	store := memory.NewPositionStore()
	ctx := context.Background()
	if err := store.Open(ctx, &domain.Position{
		TokenAddress: "mint123",
		Symbol:       "TST",
		EntryPrice:   100,
		Size:         0.5,
		StopLoss:     88,
		TakeProfit:   115,
		HighestPrice: 100,
		OpenedAt:     time.Now(),
	}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	perf := &fakePerformance{m: domain.PerformanceMetrics{Scans: 7, ExecutedTrades: 2, WinRate: 50}}
	quotes := &fakeQuotes{prices: map[string]float64{"mint123": 110}}
	ts := newTestServer(t, perf, &fakeCandidates{}, store, quotes)

	var status StatusResponse
	getJSON(t, ts.URL+"/api/status", &status)

	if status.Status != "running" {
		t.Errorf("Status = %q, want running", status.Status)
	}
	if status.Performance.Scans != 7 || status.Performance.WinRate != 50 {
		t.Errorf("Performance = %+v, want scans 7 and win rate 50", status.Performance)
	}
	if len(status.OpenPositions) != 1 {
		t.Fatalf("OpenPositions = %d, want 1", len(status.OpenPositions))
	}
	p := status.OpenPositions[0]
	if p.CurrentPrice != 110 {
		t.Errorf("CurrentPrice = %v, want 110", p.CurrentPrice)
	}
	if p.UnrealizedPLPct != 10 {
		t.Errorf("UnrealizedPLPct = %v, want 10", p.UnrealizedPLPct)
	}
}

func TestStatus_QuoteFailureDoesNotFailResponse(t *testing.T) {
	store := memory.NewPositionStore()
	ctx := context.Background()
	if err := store.Open(ctx, &domain.Position{
		TokenAddress: "mint123",
		Symbol:       "TST",
		EntryPrice:   100,
		OpenedAt:     time.Now(),
	}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ts := newTestServer(t, &fakePerformance{}, &fakeCandidates{}, store, &fakeQuotes{err: errors.New("feed down")})

	var status StatusResponse
	getJSON(t, ts.URL+"/api/status", &status)

	if len(status.OpenPositions) != 1 {
		t.Fatalf("OpenPositions = %d, want 1", len(status.OpenPositions))
	}
	if status.OpenPositions[0].CurrentPrice != 0 {
		t.Errorf("CurrentPrice = %v, want 0 when the quote fails", status.OpenPositions[0].CurrentPrice)
	}
}

func TestStatus_IncludesClosedHistory(t *testing.T) {
	store := memory.NewPositionStore()
	ctx := context.Background()
	if err := store.Open(ctx, &domain.Position{TokenAddress: "mint123", Symbol: "TST", EntryPrice: 100, OpenedAt: time.Now()}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Close(ctx, "mint123", &domain.ClosedPosition{
		Position:      domain.Position{TokenAddress: "mint123", Symbol: "TST", EntryPrice: 100},
		ExitPrice:     116,
		ExitReason:    domain.ExitReasonTakeProfit,
		ProfitLossPct: 16,
		ClosedAt:      time.Now(),
	}); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	ts := newTestServer(t, &fakePerformance{}, &fakeCandidates{}, store, &fakeQuotes{})

	var status StatusResponse
	getJSON(t, ts.URL+"/api/status", &status)

	if len(status.OpenPositions) != 0 {
		t.Errorf("OpenPositions = %d, want 0", len(status.OpenPositions))
	}
	if len(status.ClosedPositions) != 1 {
		t.Fatalf("ClosedPositions = %d, want 1", len(status.ClosedPositions))
	}
	if status.ClosedPositions[0].ExitReason != domain.ExitReasonTakeProfit {
		t.Errorf("ExitReason = %q, want %q", status.ClosedPositions[0].ExitReason, domain.ExitReasonTakeProfit)
	}
}

func TestCandidates(t *testing.T) {
	candidates := &fakeCandidates{tokens: []*domain.Candidate{
		{Address: "mint123", Symbol: "TST", PriceUSD: 0.0042},
	}}
	ts := newTestServer(t, &fakePerformance{}, candidates, memory.NewPositionStore(), &fakeQuotes{})

	var got []*domain.Candidate
	getJSON(t, ts.URL+"/api/candidates", &got)

	if len(got) != 1 || got[0].Address != "mint123" {
		t.Fatalf("candidates = %+v, want the admitted token", got)
	}
}

func TestCandidates_EmptySetIsJSONArray(t *testing.T) {
	ts := newTestServer(t, &fakePerformance{}, &fakeCandidates{}, memory.NewPositionStore(), &fakeQuotes{})

	resp, err := http.Get(ts.URL + "/api/candidates")
	if err != nil {
		t.Fatalf("GET /api/candidates failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body failed: %v", err)
	}
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Errorf("empty candidate set encoded as %q, want []", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakePerformance{}, &fakeCandidates{}, memory.NewPositionStore(), &fakeQuotes{})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestWebsocket_PushesStatusSnapshot(t *testing.T) {
	perf := &fakePerformance{m: domain.PerformanceMetrics{Scans: 3}}
	ts := newTestServer(t, perf, &fakeCandidates{}, memory.NewPositionStore(), &fakeQuotes{})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var status StatusResponse
	if err := conn.ReadJSON(&status); err != nil {
		t.Fatalf("reading snapshot failed: %v", err)
	}
	if status.Status != "running" || status.Performance.Scans != 3 {
		t.Errorf("snapshot = %+v, want running with 3 scans", status)
	}
}
