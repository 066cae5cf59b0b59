// Package metrics exposes Prometheus collectors for the orchestrator,
// content-addressed store, and transfer scheduler, grounded in the
// nil-safe Metrics-struct-with-package-level-global pattern
// (pkg/metadata/lock/metrics.go).
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	LabelAction    = "action"
	LabelResult    = "result"
	LabelSizeClass = "size_class"
	LabelPolicy    = "policy"
)

const (
	ResultSuccess = "success"
	ResultDenied  = "denied"
	ResultError   = "error"
)

// Metrics bundles every Prometheus collector CoreVault exposes. A nil
// *Metrics is safe to call methods on — every method short-circuits — so
// callers never need a feature flag at every call site.
type Metrics struct {
	uploadTotal    *prometheus.CounterVec
	uploadDedupHit prometheus.Counter
	uploadBytes    prometheus.Counter

	downloadTotal *prometheus.CounterVec
	downloadBytes prometheus.Counter

	accessDecisionTotal *prometheus.CounterVec

	schedulerPermitWait *prometheus.HistogramVec
	schedulerQueueDepth *prometheus.GaugeVec

	shareRedemptionTotal *prometheus.CounterVec

	backendObjectsDeleted prometheus.Counter

	registered bool
}

// New creates and, if registry is non-nil, registers the collectors.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corevault", Subsystem: "cas", Name: "upload_total",
			Help: "Total number of ingest attempts by result.",
		}, []string{LabelResult}),

		uploadDedupHit: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corevault", Subsystem: "cas", Name: "upload_dedup_hit_total",
			Help: "Number of uploads whose content already existed in scope.",
		}),

		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corevault", Subsystem: "cas", Name: "upload_bytes_total",
			Help: "Total bytes ingested across all uploads.",
		}),

		downloadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corevault", Subsystem: "orchestrator", Name: "download_total",
			Help: "Total number of download requests by result.",
		}, []string{LabelResult}),

		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corevault", Subsystem: "orchestrator", Name: "download_bytes_total",
			Help: "Total bytes streamed across all downloads (excludes presigned redirects).",
		}),

		accessDecisionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corevault", Subsystem: "access", Name: "decision_total",
			Help: "C4 decisions by action and result.",
		}, []string{LabelAction, LabelResult}),

		schedulerPermitWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "corevault", Subsystem: "scheduler", Name: "permit_wait_seconds",
			Help:    "Time spent waiting to acquire a transfer permit, by size class.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{LabelSizeClass}),

		schedulerQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "corevault", Subsystem: "scheduler", Name: "queue_depth",
			Help: "Number of transfers currently waiting for a permit, by size class.",
		}, []string{LabelSizeClass}),

		shareRedemptionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corevault", Subsystem: "share", Name: "redemption_total",
			Help: "Share token redemptions by policy and result.",
		}, []string{LabelPolicy, LabelResult}),

		backendObjectsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corevault", Subsystem: "cas", Name: "backend_objects_deleted_total",
			Help: "Backend objects actually removed on last-reference permanent delete.",
		}),
	}

	if registry != nil {
		registry.MustRegister(
			m.uploadTotal, m.uploadDedupHit, m.uploadBytes,
			m.downloadTotal, m.downloadBytes,
			m.accessDecisionTotal,
			m.schedulerPermitWait, m.schedulerQueueDepth,
			m.shareRedemptionTotal,
			m.backendObjectsDeleted,
		)
		m.registered = true
	}
	return m
}

func (m *Metrics) ObserveUpload(result string, sizeBytes uint64, dedupHit bool) {
	if m == nil {
		return
	}
	m.uploadTotal.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.uploadBytes.Add(float64(sizeBytes))
		if dedupHit {
			m.uploadDedupHit.Inc()
		}
	}
}

func (m *Metrics) ObserveDownload(result string, sizeBytes uint64) {
	if m == nil {
		return
	}
	m.downloadTotal.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.downloadBytes.Add(float64(sizeBytes))
	}
}

func (m *Metrics) ObserveAccessDecision(action string, allowed bool) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if !allowed {
		result = ResultDenied
	}
	m.accessDecisionTotal.WithLabelValues(action, result).Inc()
}

func (m *Metrics) ObservePermitWait(sizeClass string, seconds float64) {
	if m == nil {
		return
	}
	m.schedulerPermitWait.WithLabelValues(sizeClass).Observe(seconds)
}

func (m *Metrics) SetQueueDepth(sizeClass string, depth float64) {
	if m == nil {
		return
	}
	m.schedulerQueueDepth.WithLabelValues(sizeClass).Set(depth)
}

func (m *Metrics) ObserveShareRedemption(policy, result string) {
	if m == nil {
		return
	}
	m.shareRedemptionTotal.WithLabelValues(policy, result).Inc()
}

func (m *Metrics) ObserveBackendObjectDeleted() {
	if m == nil {
		return
	}
	m.backendObjectsDeleted.Inc()
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	if m == nil || !m.registered {
		return
	}
	m.uploadTotal.Describe(ch)
	ch <- m.uploadDedupHit.Desc()
	ch <- m.uploadBytes.Desc()
	m.downloadTotal.Describe(ch)
	ch <- m.downloadBytes.Desc()
	m.accessDecisionTotal.Describe(ch)
	m.schedulerPermitWait.Describe(ch)
	m.schedulerQueueDepth.Describe(ch)
	m.shareRedemptionTotal.Describe(ch)
	ch <- m.backendObjectsDeleted.Desc()
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	if m == nil || !m.registered {
		return
	}
	m.uploadTotal.Collect(ch)
	ch <- m.uploadDedupHit
	ch <- m.uploadBytes
	m.downloadTotal.Collect(ch)
	ch <- m.downloadBytes
	m.accessDecisionTotal.Collect(ch)
	m.schedulerPermitWait.Collect(ch)
	m.schedulerQueueDepth.Collect(ch)
	m.shareRedemptionTotal.Collect(ch)
	ch <- m.backendObjectsDeleted
}
