// Package monitoring exposes optimization progress as Prometheus metrics
// for long-running grid searches.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossover_evaluations_total",
			Help: "Total number of evaluated parameter combinations",
		},
		[]string{"status"},
	)

	evaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crossover_evaluation_duration_seconds",
			Help:    "Distribution of per-combination evaluation time",
			Buckets: prometheus.DefBuckets,
		},
	)

	batchProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crossover_batch_progress_ratio",
			Help: "Fraction of the current optimization batch completed",
		},
	)

	bestSharpe = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crossover_best_sharpe_ratio",
			Help: "Best Sharpe ratio observed in the current batch",
		},
	)
)

func init() {
	prometheus.MustRegister(evaluationsTotal)
	prometheus.MustRegister(evaluationDuration)
	prometheus.MustRegister(batchProgress)
	prometheus.MustRegister(bestSharpe)
}

// RecordEvaluation records one finished combination.
func RecordEvaluation(failed bool, seconds float64) {
	status := "success"
	if failed {
		status = "failure"
	}
	evaluationsTotal.WithLabelValues(status).Inc()
	evaluationDuration.Observe(seconds)
}

// UpdateProgress updates the batch completion gauge.
func UpdateProgress(completed, total int) {
	if total > 0 {
		batchProgress.Set(float64(completed) / float64(total))
	}
}

// UpdateBestSharpe tracks the running best Sharpe ratio.
func UpdateBestSharpe(sharpe float64) {
	bestSharpe.Set(sharpe)
}

// Serve exposes /metrics on addr in the background. Errors are delivered
// on the returned channel; the optimizer never blocks on the endpoint.
func Serve(addr string) <-chan error {
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		errCh <- http.ListenAndServe(addr, mux)
	}()
	return errCh
}
