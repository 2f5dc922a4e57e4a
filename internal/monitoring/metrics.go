// Package monitoring exposes Prometheus instrumentation for long-running
// batch analyses, where run counts and durations are worth watching.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seasonal_edge_analyses_total",
			Help: "Total number of analyses run",
		},
		[]string{"symbol", "status"},
	)

	analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seasonal_edge_analysis_duration_seconds",
			Help:    "Wall time of a full per-symbol analysis",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	monteCarloSimulations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seasonal_edge_monte_carlo_simulations_total",
			Help: "Total number of Monte Carlo trials generated",
		},
	)

	batchJobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "seasonal_edge_batch_jobs_in_flight",
			Help: "Batch jobs currently being processed",
		},
	)
)

func init() {
	prometheus.MustRegister(analysesTotal)
	prometheus.MustRegister(analysisDuration)
	prometheus.MustRegister(monteCarloSimulations)
	prometheus.MustRegister(batchJobsInFlight)
}

// RecordAnalysis counts one finished analysis and its wall time.
func RecordAnalysis(symbol string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	analysesTotal.WithLabelValues(symbol, status).Inc()
	analysisDuration.WithLabelValues(symbol).Observe(elapsed.Seconds())
}

// RecordMonteCarlo counts simulated trials.
func RecordMonteCarlo(simulations int) {
	monteCarloSimulations.Add(float64(simulations))
}

// JobStarted / JobFinished track batch pool occupancy.
func JobStarted()  { batchJobsInFlight.Inc() }
func JobFinished() { batchJobsInFlight.Dec() }

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts a metrics endpoint on addr under /metrics. It blocks, so
// callers run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
