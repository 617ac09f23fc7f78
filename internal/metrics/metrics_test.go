package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/runs", "/api/v1/runs"},
		{"/api/v1/runs/latest", "/api/v1/runs/latest"},

		// Parameterized satellite routes collapse to one label each.
		{"/api/v1/satellites/53807/samples", "/api/v1/satellites/{norad_id}/samples"},
		{"/api/v1/satellites/61045/samples", "/api/v1/satellites/{norad_id}/samples"},
		{"/api/v1/satellites/67232/passes", "/api/v1/satellites/{norad_id}/passes"},

		// Unknown/bot paths collapse to "other".
		{"/api/v1/runs/6f1c2a34-5b6d-4e7f-8a9b-0c1d2e3f4a5b/passes", "/api/v1/runs/{run_id}/passes"},
		{"/api/v1/runs/not-a-uuid/passes", "other"},
		{"/api/v1/runs/6f1c2a34-5b6d-4e7f-8a9b-0c1d2e3f4a5b", "other"},
		{"/api/v1/satellites/abc/passes", "other"},
		{"/api/v1/satellites/53807", "other"},
		{"/api/v1/satellites//passes", "other"},
		{"/api/v1/satellites/53807/tle", "other"},
		{"/wp-admin", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 unique NORAD IDs produce
// exactly 1 distinct path label, not 100.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[normalizeRoute("/api/v1/satellites/"+strconv.Itoa(60000+i)+"/passes")] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/satellites/{norad_id}/passes", "GET", "404"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/satellites/99999/passes", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/satellites/{norad_id}/passes", "GET", "404"))

	if after-before != 1 {
		t.Errorf("request counter moved by %v, want 1", after-before)
	}
}

func TestDomainRecorders(t *testing.T) {
	beforeSamples := testutil.ToFloat64(samplesTotal)
	beforeFailures := testutil.ToFloat64(samplingFailuresTotal)
	RecordSampling(120*time.Millisecond, 1000, false)
	RecordSampling(5*time.Millisecond, 0, true)
	if got := testutil.ToFloat64(samplesTotal) - beforeSamples; got != 1000 {
		t.Errorf("samples counter moved by %v, want 1000", got)
	}
	if got := testutil.ToFloat64(samplingFailuresTotal) - beforeFailures; got != 1 {
		t.Errorf("failure counter moved by %v, want 1", got)
	}

	beforeSim := testutil.ToFloat64(tleResolvedTotal.WithLabelValues("simulated"))
	RecordTLEResolved("simulated")
	if got := testutil.ToFloat64(tleResolvedTotal.WithLabelValues("simulated")) - beforeSim; got != 1 {
		t.Errorf("resolved counter moved by %v, want 1", got)
	}

	beforeErr := testutil.ToFloat64(runsTotal.WithLabelValues("error"))
	RecordRun(errors.New("no satellites"))
	RecordRun(nil)
	if got := testutil.ToFloat64(runsTotal.WithLabelValues("error")) - beforeErr; got != 1 {
		t.Errorf("error runs moved by %v, want 1", got)
	}
	if testutil.ToFloat64(lastRunTimestamp) == 0 {
		t.Error("last run timestamp not set after a successful run")
	}
}
