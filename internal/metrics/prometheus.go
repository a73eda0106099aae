package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder records pricing activity in Prometheus. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	gatherer       prometheus.Gatherer
	evaluations    *prometheus.CounterVec
	unsolvable     prometheus.Counter
	rateLookups    *prometheus.CounterVec
	decodeWarnings prometheus.Counter
	latency        *prometheus.HistogramVec
}

// New creates a recorder whose collectors are registered on reg.
func New(reg *prometheus.Registry) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcing_evaluations_total",
				Help: "Total number of variant evaluations",
			},
			[]string{"channel", "outcome"},
		),
		unsolvable: f.NewCounter(
			prometheus.CounterOpts{
				Name: "sourcing_unsolvable_total",
				Help: "Evaluations where no price reaches the target margin",
			},
		),
		rateLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcing_exchange_rate_lookups_total",
				Help: "Exchange-rate lookups by source",
			},
			[]string{"source"},
		),
		decodeWarnings: f.NewCounter(
			prometheus.CounterOpts{
				Name: "sourcing_variant_decode_warnings_total",
				Help: "Stored variant lists that could not be parsed",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sourcing_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvaluation records one evaluated variant.
func (r *Recorder) RecordEvaluation(channel, outcome string) {
	if r == nil {
		return
	}
	r.evaluations.WithLabelValues(channel, outcome).Inc()
}

// RecordUnsolvable records an evaluation without a valid price.
func (r *Recorder) RecordUnsolvable() {
	if r == nil {
		return
	}
	r.unsolvable.Inc()
}

// RecordRateSource records where an exchange rate came from.
func (r *Recorder) RecordRateSource(source string) {
	if r == nil {
		return
	}
	r.rateLookups.WithLabelValues(source).Inc()
}

// RecordDecodeWarning records a stored variant list that failed to parse.
func (r *Recorder) RecordDecodeWarning() {
	if r == nil {
		return
	}
	r.decodeWarnings.Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
