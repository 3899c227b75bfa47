package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gbp_reviews/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so counters are non-zero
	observability.ObserveHTTP("/reviews", "GET", 200, 12*time.Millisecond)
	observability.ObserveExternal("reviews", 200, 40*time.Millisecond)
	observability.ObserveStore("write")
	observability.SetSnapshotReviews(3)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, metric := range []string{
		"gbp_http_requests_total",
		"gbp_external_requests_total",
		"gbp_snapshot_store_events_total",
		"gbp_snapshot_reviews 3",
	} {
		if !strings.Contains(out, metric) {
			t.Fatalf("expected %s in metrics output", metric)
		}
	}
}
