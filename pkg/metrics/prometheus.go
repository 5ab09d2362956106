package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domrepo "StockSeq/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches        *prometheus.CounterVec
	quotaCharges   prometheus.Counter
	quotaRemaining prometheus.Gauge
	phases         *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

var _ domrepo.Metrics = (*Recorder)(nil)

// NewRegistry returns a registry with the Go and process collectors attached.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New creates a recorder whose collectors are registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockseq_provider_fetches_total",
				Help: "Provider fetch attempts by outcome",
			},
			[]string{"symbol", "outcome"},
		),
		quotaCharges: f.NewCounter(
			prometheus.CounterOpts{
				Name: "stockseq_quota_charges_total",
				Help: "Requests charged against the daily quota",
			},
		),
		quotaRemaining: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockseq_quota_remaining",
				Help: "Requests left in today's quota",
			},
		),
		phases: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockseq_phase_symbols_total",
				Help: "Per-symbol phase outcomes",
			},
			[]string{"phase", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockseq_errors_total",
				Help: "Total number of errors by kind",
			},
			[]string{"kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockseq_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch counts one provider fetch attempt.
func (r *Recorder) RecordFetch(symbol, outcome string) {
	r.fetches.WithLabelValues(symbol, outcome).Inc()
}

func (r *Recorder) RecordQuotaCharge() { r.quotaCharges.Inc() }

func (r *Recorder) SetQuotaRemaining(n int) { r.quotaRemaining.Set(float64(n)) }

// RecordPhase counts one symbol's outcome in a pipeline phase.
func (r *Recorder) RecordPhase(phase, outcome string) {
	r.phases.WithLabelValues(phase, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
