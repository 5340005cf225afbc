package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"model-registry-service/internal/core/tracker"
)

func TestMetrics_TrackerObserver(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	tr := tracker.New(m)

	tr.Begin("a", tracker.KindInitial)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequestsPending))

	tr.Fulfill("a")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BackendRequestsPending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("initial", "fulfilled")))
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.PollTick("model-version", "skipped_hidden")
	m.PollTick("model-version", "skipped_hidden")
	m.MonitoringTagsDropped(3)
	m.MonitoringTagsDropped(0)
	m.HTTPRequest("GET", "/healthz", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PollTicksTotal.WithLabelValues("model-version", "skipped_hidden")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.MonitoringTagsDroppedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RequestStarted(tracker.KindBackground)
		m.RequestFinished(tracker.KindBackground, tracker.StatusRejected, time.Second)
		m.PollTick("model", "fetched")
		m.MonitoringTagsDropped(1)
		m.SessionOpened()
		m.SessionClosed()
	})
}
