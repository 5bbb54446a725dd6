package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    *prometheus.CounterVec
	RunsRejected  prometheus.Counter

	StageDuration *prometheus.HistogramVec

	ComparisonRecords prometheus.Counter
	AnomaliesFound    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calibra_pipeline_runs_started_total",
			Help: "Pipeline runs started",
		}),
		RunsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calibra_pipeline_runs_completed_total",
			Help: "Pipeline runs that reached COMPLETED",
		}),
		RunsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "calibra_pipeline_runs_failed_total",
			Help: "Pipeline runs that reached FAILED, by originating stage",
		}, []string{"stage"}),
		RunsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calibra_pipeline_runs_rejected_total",
			Help: "Run requests rejected because the case was already running",
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calibra_pipeline_stage_duration_seconds",
			Help:    "Wall time per pipeline stage",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800, 7200},
		}, []string{"stage"}),
		ComparisonRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calibra_comparison_records_total",
			Help: "Comparison records produced by the accuracy evaluator",
		}),
		AnomaliesFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calibra_anomalies_total",
			Help: "Comparison records classified anomalous",
		}),
	}
}

// ObserveStage records the duration of one completed or failed stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
