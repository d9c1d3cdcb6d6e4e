package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	MustRegister()
	MustRegister() // idempotent

	IncInteraction(true)
	IncInteraction(false)
	IncInteraction(false)
	if got := testutil.ToFloat64(interactionsTotal.WithLabelValues("fallback")); got != 2 {
		t.Fatalf("fallback = %v", got)
	}
	IncCacheRequest(" Profile ", "HIT")
	if got := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("profile", "hit")); got != 1 {
		t.Fatalf("cache hit = %v", got)
	}
	ObserveHTTP("/interact", "POST", 200, 0.01)
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/interact", "POST", "200")); got != 1 {
		t.Fatalf("http = %v", got)
	}
}
