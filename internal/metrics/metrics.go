package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	smooth = "smooth"

	// Run metrics
	runsTotal       = "runs_total"
	runDuration     = "run_duration_seconds"
	storedRunsCount = "stored_runs_count"

	// Fitting metrics
	fittingEvaluationsTotal = "fitting_evaluations_total"

	// Labels
	runStatusLabel  = "status"
	runSolverLabel  = "solver"
	fittingKeyLabel = "key"
)

var runsTotalLabels = []string{
	runStatusLabel,
	runSolverLabel,
}

var fittingEvaluationsTotalLabels = []string{
	fittingKeyLabel,
}

/**
* Metrics definition
**/
var runsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: smooth,
		Name:      runsTotal,
		Help:      "number of simulation runs by status and solver",
	},
	runsTotalLabels,
)

var runDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: smooth,
		Name:      runDuration,
		Help:      "wall time of a simulation run",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	},
)

var storedRunsCountMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: smooth,
		Name:      storedRunsCount,
		Help:      "number of run results held by the run store",
	},
)

var fittingEvaluationsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: smooth,
		Name:      fittingEvaluationsTotal,
		Help:      "number of fitting evaluations by key",
	},
	fittingEvaluationsTotalLabels,
)

func IncreaseRunsTotalMetric(status, solver string) {
	labels := prometheus.Labels{
		runStatusLabel: status,
		runSolverLabel: solver,
	}
	runsTotalMetric.With(labels).Inc()
}

func ObserveRunDuration(seconds float64) {
	runDurationMetric.Observe(seconds)
}

func UpdateStoredRunsMetric(count int) {
	storedRunsCountMetric.Set(float64(count))
}

func IncreaseFittingEvaluationsMetric(key string) {
	labels := prometheus.Labels{
		fittingKeyLabel: key,
	}
	fittingEvaluationsTotalMetric.With(labels).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(runsTotalMetric)
	prometheus.MustRegister(runDurationMetric)
	prometheus.MustRegister(storedRunsCountMetric)
	prometheus.MustRegister(fittingEvaluationsTotalMetric)
}
