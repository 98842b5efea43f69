package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the dedup module. All methods are safe on
// a nil receiver so services can run without metrics in tests.
type Metrics struct {
	// Searches by outcome: "empty", "invalid", "matched", "no_match", "error"
	SearchOutcome *prometheus.CounterVec

	// Candidates returned by the retriever before scoring
	CandidatesRetrieved prometheus.Histogram

	// Candidates surviving scoring
	CandidatesMatched prometheus.Histogram

	SearchLatency prometheus.Histogram

	// Recorded decisions by kind
	Decisions *prometheus.CounterVec

	// Store failures by operation: "retrieve", "record_decision", "history", "directory"
	StoreFailures *prometheus.CounterVec
}

// New registers dedup metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers dedup metrics with reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SearchOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "caseguard_dedup_searches_total",
			Help: "Total duplicate searches by outcome",
		}, []string{"outcome"}),

		CandidatesRetrieved: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseguard_dedup_candidates_retrieved",
			Help:    "Candidates returned by the record store per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 35, 50},
		}),

		CandidatesMatched: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseguard_dedup_candidates_matched",
			Help:    "Scored candidates with at least one match type per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 35, 50},
		}),

		SearchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseguard_dedup_search_duration_seconds",
			Help:    "Duration of a duplicate search including retrieval, scoring and ranking",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "caseguard_dedup_decisions_total",
			Help: "Total recorded dedup decisions by kind",
		}, []string{"decision"}),

		StoreFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "caseguard_dedup_store_failures_total",
			Help: "Store failures surfaced to callers by operation",
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementSearch(outcome string) {
	if m != nil {
		m.SearchOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveCandidates(retrieved, matched int) {
	if m != nil {
		m.CandidatesRetrieved.Observe(float64(retrieved))
		m.CandidatesMatched.Observe(float64(matched))
	}
}

func (m *Metrics) ObserveSearchLatency(d time.Duration) {
	if m != nil {
		m.SearchLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementDecision(kind string) {
	if m != nil {
		m.Decisions.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementStoreFailure(operation string) {
	if m != nil {
		m.StoreFailures.WithLabelValues(operation).Inc()
	}
}
