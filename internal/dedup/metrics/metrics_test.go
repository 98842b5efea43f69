package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementSearch("matched")
		m.ObserveCandidates(3, 1)
		m.ObserveSearchLatency(time.Millisecond)
		m.IncrementDecision("CREATE_NEW")
		m.IncrementStoreFailure("retrieve")
	})
}

func TestCounters(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.IncrementSearch("matched")
	m.IncrementSearch("matched")
	m.IncrementDecision("USE_EXISTING")
	m.IncrementStoreFailure("history")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchOutcome.WithLabelValues("matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("USE_EXISTING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreFailures.WithLabelValues("history")))
}
