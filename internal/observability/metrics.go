package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the IVT
// pipeline.
type Metrics struct {
	FieldsLoaded    prometheus.Counter
	CellsComputed   prometheus.Counter
	MaskedCells     prometheus.Counter
	PipelineRunning prometheus.Gauge

	// StageDuration observes each pipeline stage (load_u, load_v, compute,
	// write, render) separately.
	StageDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FieldsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ivt_etl",
			Name:      "fields_loaded_total",
			Help:      "Total gridded fields read from input files.",
		}),
		CellsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ivt_etl",
			Name:      "cells_computed_total",
			Help:      "Total grid cells for which a magnitude was computed.",
		}),
		MaskedCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ivt_etl",
			Name:      "masked_cells_total",
			Help:      "Grid cells masked (missing) in the computed output.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ivt_etl",
			Name:      "pipeline_running",
			Help:      "1 while the pipeline is active, 0 when finished.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ivt_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
	}

	prometheus.MustRegister(
		m.FieldsLoaded,
		m.CellsComputed,
		m.MaskedCells,
		m.PipelineRunning,
		m.StageDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FieldsLoaded:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ivt_etl", Name: "fields_loaded_total"}),
		CellsComputed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ivt_etl", Name: "cells_computed_total"}),
		MaskedCells:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ivt_etl", Name: "masked_cells_total"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "ivt_etl", Name: "pipeline_running"}),
		StageDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "ivt_etl", Name: "stage_duration_seconds"}, []string{"stage"}),
	}
}
