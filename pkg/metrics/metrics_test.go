package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUploadRecordsDedupAndBytes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveUpload(ResultSuccess, 1024, false)
	m.ObserveUpload(ResultSuccess, 2048, true)
	m.ObserveUpload(ResultError, 0, false)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.uploadTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.uploadTotal.WithLabelValues(ResultError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.uploadDedupHit))
	assert.Equal(t, float64(3072), testutil.ToFloat64(m.uploadBytes))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpload(ResultSuccess, 10, true)
		m.ObserveDownload(ResultSuccess, 10)
		m.ObserveAccessDecision("read", false)
		m.ObservePermitWait("small", 0.1)
		m.SetQueueDepth("small", 1)
		m.ObserveShareRedemption("permissioned", ResultSuccess)
		m.ObserveBackendObjectDeleted()
	})
}

func TestObserveAccessDecisionLabelsResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveAccessDecision("read", true)
	m.ObserveAccessDecision("delete", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.accessDecisionTotal.WithLabelValues("read", ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.accessDecisionTotal.WithLabelValues("delete", ResultDenied)))
}
