package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "realm",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "realm",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "realm",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	purchases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "realm",
			Subsystem: "shop",
			Name:      "purchases_total",
			Help:      "Total number of committed purchases.",
		},
	)

	creditsSpent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "realm",
			Subsystem: "economy",
			Name:      "credits_spent_total",
			Help:      "Credits debited from users.",
		},
		[]string{"reason"},
	)

	factionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "realm",
			Subsystem: "faction",
			Name:      "factions_created_total",
			Help:      "Total number of factions founded.",
		},
	)

	factionsDissolved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "realm",
			Subsystem: "faction",
			Name:      "factions_dissolved_total",
			Help:      "Total number of factions dissolved.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		purchases,
		creditsSpent,
		factionsCreated,
		factionsDissolved,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next with HTTP metrics collection. Requests are
// labelled with the matched chi route pattern so ids do not explode
// cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routePattern(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordPurchase counts a committed purchase of the given price.
func RecordPurchase(price int) {
	purchases.Inc()
	creditsSpent.WithLabelValues("shop").Add(float64(price))
}

// RecordFactionCreated counts a founded faction and its fee.
func RecordFactionCreated(cost int) {
	factionsCreated.Inc()
	creditsSpent.WithLabelValues("faction").Add(float64(cost))
}

// RecordFactionDissolved counts a dissolved faction.
func RecordFactionDissolved() {
	factionsDissolved.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
