package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satreport_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satreport_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	tleFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satreport_tle_fetch_total",
			Help: "Element-set HTTP lookups by endpoint (catnr, group) and result.",
		},
		[]string{"endpoint", "result"},
	)

	tleResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satreport_tle_resolved_total",
			Help: "Element sets handed to the sampler, by source (live, cache, simulated).",
		},
		[]string{"source"},
	)

	samplesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "satreport_samples_total",
		Help: "Trajectory samples computed.",
	})

	samplingFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "satreport_sampling_failures_total",
		Help: "Per-satellite sampling runs that ended in an error.",
	})

	samplingDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "satreport_sampling_duration_seconds",
		Help:    "Wall time of one satellite's sampling run.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	passesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "satreport_passes_total",
		Help: "Passes found across all runs.",
	})

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satreport_runs_total",
			Help: "Pipeline runs by result.",
		},
		[]string{"result"},
	)

	lastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "satreport_last_run_timestamp_seconds",
		Help: "Unix time the last successful run completed.",
	})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		tleFetchTotal,
		tleResolvedTotal,
		samplesTotal,
		samplingFailuresTotal,
		samplingDurationSeconds,
		passesTotal,
		runsTotal,
		lastRunTimestamp,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTLEFetch counts one HTTP lookup against an element-set endpoint.
func RecordTLEFetch(endpoint, result string) {
	tleFetchTotal.WithLabelValues(endpoint, result).Inc()
}

// RecordTLEResolved counts where a satellite's elements came from.
func RecordTLEResolved(source string) {
	tleResolvedTotal.WithLabelValues(source).Inc()
}

// RecordSampling records one satellite's sampling run.
func RecordSampling(d time.Duration, samples int, failed bool) {
	samplingDurationSeconds.Observe(d.Seconds())
	samplesTotal.Add(float64(samples))
	if failed {
		samplingFailuresTotal.Inc()
	}
}

// RecordPasses adds n found passes.
func RecordPasses(n int) {
	passesTotal.Add(float64(n))
}

// RecordRun records a completed pipeline run.
func RecordRun(err error) {
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return
	}
	runsTotal.WithLabelValues("ok").Inc()
	lastRunTimestamp.SetToCurrentTime()
}

var knownRoutes = map[string]bool{
	"/":                   true,
	"/healthz":            true,
	"/readyz":             true,
	"/metrics":            true,
	"/api/v1/runs":        true,
	"/api/v1/runs/latest": true,
}

// normalizeRoute maps a request path onto a bounded set of metric labels.
// Catalog ids collapse into {norad_id} and run ids into {run_id}; anything
// unknown becomes "other".
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/runs/"); ok {
		id, leaf, _ := strings.Cut(rest, "/")
		if _, err := uuid.Parse(id); err == nil && leaf == "passes" {
			return "/api/v1/runs/{run_id}/passes"
		}
		return "other"
	}
	rest, ok := strings.CutPrefix(path, "/api/v1/satellites/")
	if !ok {
		return "other"
	}
	id, leaf, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		return "other"
	}
	if _, err := strconv.Atoi(id); err != nil {
		return "other"
	}
	switch leaf {
	case "samples", "passes":
		return "/api/v1/satellites/{norad_id}/" + leaf
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := normalizeRoute(r.URL.Path)
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
