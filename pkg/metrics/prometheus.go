package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rows         *prometheus.CounterVec
	fetches      *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	sinkRecords  *prometheus.CounterVec
	sinkErrors   *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	impactScore  *prometheus.GaugeVec
}

// New creates a Prometheus metrics recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		rows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finenrich_rows_total",
				Help: "Rows observed per pipeline stage",
			},
			[]string{"stage"},
		),
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finenrich_fetch_total",
				Help: "Enrichment lookups by source and result",
			},
			[]string{"source", "result"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finenrich_fetch_duration_seconds",
				Help:    "Enrichment lookup latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		sinkRecords: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finenrich_sink_records_total",
				Help: "Records written per sink",
			},
			[]string{"sink"},
		),
		sinkErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finenrich_sink_errors_total",
				Help: "Failed sink writes",
			},
			[]string{"sink"},
		),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finenrich_runs_total",
				Help: "Pipeline runs by trigger and status",
			},
			[]string{"trigger", "status"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finenrich_run_duration_seconds",
				Help:    "Wall time of a pipeline run",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"status"},
		),
		impactScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finenrich_impact_score",
				Help: "Last computed impact score for a symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordRows adds n rows to a stage counter (ingested, cleaned, enriched, dropped).
func (r *Recorder) RecordRows(stage string, n int) {
	r.rows.WithLabelValues(stage).Add(float64(n))
}

// RecordFetch records one enrichment lookup.
func (r *Recorder) RecordFetch(source string, degraded bool, seconds float64) {
	result := "ok"
	if degraded {
		result = "degraded"
	}
	r.fetches.WithLabelValues(source, result).Inc()
	r.fetchLatency.WithLabelValues(source).Observe(seconds)
}

// RecordSinkWrite records the outcome of handing a batch to a sink.
func (r *Recorder) RecordSinkWrite(sink string, n int, err error) {
	if err != nil {
		r.sinkErrors.WithLabelValues(sink).Inc()
	}
	r.sinkRecords.WithLabelValues(sink).Add(float64(n))
}

// RecordRun records a finished run.
func (r *Recorder) RecordRun(trigger, status string, seconds float64) {
	r.runs.WithLabelValues(trigger, status).Inc()
	r.runDuration.WithLabelValues(status).Observe(seconds)
}

// RecordImpactScore records the last impact score for a symbol.
func (r *Recorder) RecordImpactScore(symbol string, score float64) {
	r.impactScore.WithLabelValues(symbol).Set(score)
}
