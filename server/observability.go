package server

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/model"
)

const metricsNamespace = "trickle"

// Metrics exports pipeline activity to Prometheus. It implements
// trickle.MetricsCollector, so every Sampler built by the server reports
// through it.
type Metrics struct {
	// BuildsTotal counts pipeline constructions. Labels: status.
	BuildsTotal *prometheus.CounterVec
	// BuildDuration measures construction time. Labels: status.
	BuildDuration *prometheus.HistogramVec
	// BuildRecords observes the records linearized per build.
	BuildRecords prometheus.Histogram

	// ChunksTotal counts served chunks. Labels: mode (default, steered, exhausted).
	ChunksTotal *prometheus.CounterVec
	// RecordsTotal counts emitted records.
	RecordsTotal prometheus.Counter
	// SampleDuration measures chunk selection time.
	SampleDuration prometheus.Histogram

	// SwapsTotal counts stage swaps. Labels: stage, status.
	SwapsTotal *prometheus.CounterVec

	// Sessions tracks live sessions.
	Sessions prometheus.Gauge

	// RequestsTotal counts HTTP requests. Labels: route, code.
	RequestsTotal *prometheus.CounterVec
}

var _ trickle.MetricsCollector = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "builds_total",
			Help:      "Pipeline constructions by status.",
		}, []string{"status"}),
		BuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "build_duration_seconds",
			Help:      "Time to linearize and subdivide a dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"status"}),
		BuildRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "build_records",
			Help:      "Records per pipeline construction.",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
		}),
		ChunksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sampler",
			Name:      "chunks_total",
			Help:      "Chunk requests by mode.",
		}, []string{"mode"}),
		RecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sampler",
			Name:      "records_total",
			Help:      "Records emitted in chunks.",
		}),
		SampleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "sampler",
			Name:      "sample_duration_seconds",
			Help:      "Time to select one chunk.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		SwapsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sampler",
			Name:      "swaps_total",
			Help:      "Stage swaps by stage and status.",
		}, []string{"stage", "status"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "server",
			Name:      "sessions",
			Help:      "Live sessions.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(
		m.BuildsTotal, m.BuildDuration, m.BuildRecords,
		m.ChunksTotal, m.RecordsTotal, m.SampleDuration,
		m.SwapsTotal, m.Sessions, m.RequestsTotal,
	)
	return m
}

func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, model.ErrConfig):
		return "config_error"
	case errors.Is(err, model.ErrData):
		return "data_error"
	default:
		return "error"
	}
}

// RecordBuild implements trickle.MetricsCollector.
func (m *Metrics) RecordBuild(records int, d time.Duration, err error) {
	s := status(err)
	m.BuildsTotal.WithLabelValues(s).Inc()
	m.BuildDuration.WithLabelValues(s).Observe(d.Seconds())
	if err == nil {
		m.BuildRecords.Observe(float64(records))
	}
}

// RecordSample implements trickle.MetricsCollector.
func (m *Metrics) RecordSample(_, returned int, steered bool, d time.Duration) {
	mode := "default"
	switch {
	case returned == 0:
		mode = "exhausted"
	case steered:
		mode = "steered"
	}
	m.ChunksTotal.WithLabelValues(mode).Inc()
	m.RecordsTotal.Add(float64(returned))
	m.SampleDuration.Observe(d.Seconds())
}

// RecordSwap implements trickle.MetricsCollector.
func (m *Metrics) RecordSwap(stage model.Stage, _ time.Duration, err error) {
	m.SwapsTotal.WithLabelValues(string(stage), status(err)).Inc()
}
