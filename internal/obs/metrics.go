package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP-level metrics shared across the service.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	readyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the readiness probe last succeeded.",
	})
)

// Engine-level metrics, recorded where generation/substitution outcomes land.
var (
	generationRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_generation_runs_total",
		Help: "Completed monthly generation runs.",
	})

	unassignedSlotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_unassigned_slots_total",
		Help: "Slots left open because no member was eligible.",
	})

	fallbackDecisionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_fallback_decisions_total",
		Help: "Decisions resolved by first-eligible fallback instead of the recommender.",
	})

	substitutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_substitutions_total",
			Help: "Substitution requests by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration, readyGauge,
		generationRunsTotal, unassignedSlotsTotal, fallbackDecisionsTotal, substitutionsTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady mirrors the readiness probe outcome into a gauge.
func SetReady(ready bool) {
	if ready {
		readyGauge.Set(1)
	} else {
		readyGauge.Set(0)
	}
}

// ObserveGeneration records one completed generation run.
func ObserveGeneration(unassignedSlots, fallbacks int) {
	generationRunsTotal.Inc()
	unassignedSlotsTotal.Add(float64(unassignedSlots))
	fallbackDecisionsTotal.Add(float64(fallbacks))
}

// ObserveSubstitution records one substitution request outcome.
func ObserveSubstitution(mode, outcome string) {
	substitutionsTotal.WithLabelValues(mode, outcome).Inc()
}

// Instrument wraps a handler with RPS/latency/in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses identifier segments so metric cardinality stays
// bounded without a router.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if strings.HasPrefix(path, "/v1/members/") {
		rest := strings.TrimPrefix(path, "/v1/members/")
		if rest != "" && !strings.Contains(rest, "/") {
			return "/v1/members/:id"
		}
	}
	return path
}

// statusWriter records the response code for metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
