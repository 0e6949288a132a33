package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCCallsTotal tracks JSON-RPC attempts per method
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waveportal_rpc_calls_total",
			Help: "Total number of JSON-RPC call attempts",
		},
		[]string{"method"},
	)

	// RPCErrorsTotal tracks JSON-RPC calls that failed after retries
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waveportal_rpc_errors_total",
			Help: "Total number of failed JSON-RPC calls",
		},
		[]string{"method"},
	)

	// RPCLatency tracks JSON-RPC call latency including retries
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waveportal_rpc_latency_seconds",
			Help:    "JSON-RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// LedgerFaultsTotal counts remote call faults against the contract
	LedgerFaultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waveportal_ledger_faults_total",
			Help: "Total number of failed contract calls",
		},
		[]string{"op"},
	)

	// WavesIngested counts records entering the history, by source
	WavesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waveportal_waves_ingested_total",
			Help: "Total number of waves added to the history",
		},
		[]string{"source"},
	)

	// HistorySize is the current length of the record collection
	HistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waveportal_history_size",
			Help: "Number of waves currently held in the history",
		},
	)

	// SubmissionsTotal counts finished submissions by outcome
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waveportal_submissions_total",
			Help: "Total number of wave submissions by final phase",
		},
		[]string{"phase"},
	)

	// ConfirmationLatency tracks time from submit to confirmation
	ConfirmationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "waveportal_confirmation_latency_seconds",
			Help:    "Time between submitting a wave and its confirmation",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	// WalletConnected is 1 while an account is set
	WalletConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waveportal_wallet_connected",
			Help: "Whether a wallet account is currently connected",
		},
	)
)
