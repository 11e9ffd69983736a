// Package metrics holds the Prometheus collectors for the router and its host.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feeproxy_calls_total", Help: "Router instructions processed by operation and result"},
		[]string{"op", "result"},
	)
	FeesLamportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feeproxy_fees_lamports_total", Help: "Lamports skimmed as fees per venue"},
		[]string{"venue"},
	)
	WalletRotationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feeproxy_wallet_rotations_total", Help: "Fee wallet rotations applied"},
	)
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ledger_transactions_total", Help: "Transactions executed by the in-memory bank"},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(CallsTotal, FeesLamportsTotal, WalletRotationsTotal, TransactionsTotal)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
