package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	SubmissionsTotal   *prometheus.CounterVec
	SubmissionLatency  *prometheus.HistogramVec
	IndexingCallsTotal *prometheus.CounterVec
	URLsSubmittedTotal prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indexnow_submissions_total",
			Help: "IndexNow endpoint attempts, by endpoint and result.",
		}, []string{"endpoint", "result"}),

		SubmissionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "indexnow_submission_seconds",
			Help:    "Time spent on one endpoint, retries included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		IndexingCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indexing_notifications_total",
			Help: "Indexing API calls, by operation (publish, metadata) and result.",
		}, []string{"operation", "result"}),

		URLsSubmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexnow_urls_submitted_total",
			Help: "URLs carried by IndexNow batches, counted once per batch.",
		}),
	}

	reg.MustRegister(
		m.SubmissionsTotal,
		m.SubmissionLatency,
		m.IndexingCallsTotal,
		m.URLsSubmittedTotal,
	)

	return m
}

// Hooks is the set of callbacks the notifier invokes. A zero Hooks is valid;
// nil funcs are no-ops.
type Hooks struct {
	OnEndpointResult func(endpoint string, succeeded bool, latency time.Duration)
	OnBatch          func(urls int)
	OnIndexingCall   func(operation string, succeeded bool)
}

// NotifierHooks returns the metric callbacks expected by service.Notifier.
// Centralises the prometheus observation calls so the service stays import-free.
func (m *Metrics) NotifierHooks() Hooks {
	return Hooks{
		OnEndpointResult: func(endpoint string, succeeded bool, latency time.Duration) {
			m.SubmissionsTotal.WithLabelValues(endpoint, result(succeeded)).Inc()
			m.SubmissionLatency.WithLabelValues(endpoint).Observe(latency.Seconds())
		},
		OnBatch: func(urls int) {
			m.URLsSubmittedTotal.Add(float64(urls))
		},
		OnIndexingCall: func(operation string, succeeded bool) {
			m.IndexingCallsTotal.WithLabelValues(operation, result(succeeded)).Inc()
		},
	}
}

func result(succeeded bool) string {
	if succeeded {
		return resultSuccess
	}
	return resultFailure
}
