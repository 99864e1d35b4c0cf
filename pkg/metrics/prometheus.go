package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics on Prometheus.
type Recorder struct {
	signals *prometheus.CounterVec
	errors  *prometheus.CounterVec
	entropy *prometheus.GaugeVec
	latency *prometheus.HistogramVec
}

// New registers the collectors with the default registry.
func New() *Recorder {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors with reg. Tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qofa_signals_total",
				Help: "Trading signals emitted",
			},
			[]string{"signal_type", "flow_type"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qofa_errors_total",
				Help: "Errors by kind",
			},
			[]string{"type"},
		),
		entropy: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "qofa_entanglement_entropy",
				Help: "Last entanglement entropy per symbol set",
			},
			[]string{"symbols"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qofa_operation_duration_seconds",
				Help:    "Duration of engine operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSignal(signalType, flowType string) {
	r.signals.WithLabelValues(signalType, flowType).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordEntropy stores the latest entropy for a comma-joined symbol set.
func (r *Recorder) RecordEntropy(symbols string, entropy float64) {
	r.entropy.WithLabelValues(symbols).Set(entropy)
}
