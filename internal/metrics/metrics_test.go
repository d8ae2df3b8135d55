package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/notifyhub/indexnotify/internal/metrics"
)

func TestNotifierHooks_RecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := m.NotifierHooks()

	h.OnEndpointResult("api.indexnow.org", true, 120*time.Millisecond)
	h.OnEndpointResult("api.indexnow.org", false, time.Second)
	h.OnEndpointResult("yandex.com", false, time.Second)
	h.OnBatch(9)
	h.OnIndexingCall("publish", true)

	if got := testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("api.indexnow.org", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("yandex.com", "failure")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.URLsSubmittedTotal); got != 9 {
		t.Fatalf("expected 9 urls, got %v", got)
	}
	if got := testutil.ToFloat64(m.IndexingCallsTotal.WithLabelValues("publish", "success")); got != 1 {
		t.Fatalf("expected 1 publish, got %v", got)
	}
	if n := testutil.CollectAndCount(m.SubmissionLatency); n != 2 {
		t.Fatalf("expected 2 latency series, got %d", n)
	}
}
