package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pairs_runs_total", Help: "Pair backtests by outcome"},
		[]string{"outcome"},
	)
	ClosedTradesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pairs_closed_trades_total", Help: "Closed trades produced by backtests"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pairs_run_duration_seconds",
			Help:    "Wall time of one pair backtest including price fetch",
			Buckets: prometheus.DefBuckets,
		},
	)
	PublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pairs_publish_failures_total", Help: "Run summaries that failed to publish"},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal, ClosedTradesTotal, RunDuration, PublishFailures)
}

// ObserveRun records one pair run.
func ObserveRun(outcome string, d time.Duration, trades int) {
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.Observe(d.Seconds())
	if trades > 0 {
		ClosedTradesTotal.Add(float64(trades))
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
