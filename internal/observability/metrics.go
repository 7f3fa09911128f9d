// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scanner metrics
	ScanIterations     prometheus.Counter
	PairsScanned       prometheus.Counter
	PairsRejected      *prometheus.CounterVec
	CandidatesAdmitted prometheus.Counter
	AdmittedSetSize    prometheus.Gauge

	// Risk verification metrics
	RiskAssessments *prometheus.CounterVec
	RiskAPILatency  prometheus.Histogram
	AuthAttempts    *prometheus.CounterVec

	// Market data metrics
	MarketCallLatency *prometheus.HistogramVec

	// Trading metrics
	TradeCycles     prometheus.Counter
	PositionsOpened prometheus.Counter
	PositionsClosed *prometheus.CounterVec
	OpenPositions   prometheus.Gauge
	TotalProfitLoss prometheus.Gauge
	WinRate         prometheus.Gauge

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_trading_bot"
	}

	return &Metrics{
		// Scanner metrics
		ScanIterations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "iterations_total",
			Help:      "Total number of scan iterations",
		}),
		PairsScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "pairs_scanned_total",
			Help:      "Total number of pairs evaluated by the scanner",
		}),
		PairsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "pairs_rejected_total",
			Help:      "Total number of pairs rejected by stage",
		}, []string{"stage"}),
		CandidatesAdmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "candidates_admitted_total",
			Help:      "Total number of candidates admitted to the trading set",
		}),
		AdmittedSetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "admitted_set_size",
			Help:      "Current number of unexpired admitted candidates",
		}),

		// Risk verification metrics
		RiskAssessments: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rugcheck",
			Name:      "assessments_total",
			Help:      "Total number of risk assessments by outcome",
		}, []string{"outcome"}),
		RiskAPILatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rugcheck",
			Name:      "api_latency_seconds",
			Help:      "RugCheck API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		AuthAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rugcheck",
			Name:      "auth_attempts_total",
			Help:      "Total number of auth token attempts by outcome",
		}, []string{"outcome"}),

		// Market data metrics
		MarketCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dexscreener",
			Name:      "call_latency_seconds",
			Help:      "DexScreener API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		// Trading metrics
		TradeCycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "cycles_total",
			Help:      "Total number of trading loop cycles",
		}),
		PositionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "positions_opened_total",
			Help:      "Total number of simulated positions opened",
		}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "positions_closed_total",
			Help:      "Total number of simulated positions closed by exit reason",
		}, []string{"reason"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "open_positions",
			Help:      "Current number of open simulated positions",
		}),
		TotalProfitLoss: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "total_profit_loss_percent",
			Help:      "Cumulative realized profit/loss in percent",
		}),
		WinRate: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "win_rate_percent",
			Help:      "Share of closed trades with positive P/L",
		}),

		// Health metrics
		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of the last successful scan iteration",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
