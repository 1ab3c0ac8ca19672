package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// to prevent metrics from being registered multiple times
	isMetricsInitVar uint32 = 0

	activeRESTConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meetupboard_active_rest_connections",
			Help: "Number of in-flight REST API requests",
		},
	)

	responseTimeRESTAPI = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meetupboard_restapi_response_time_milliseconds",
			Help:    "REST API response time distributions",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"method", "route"},
	)

	// RESTRequestsTotal counts processed REST requests
	RESTRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meetupboard_rest_requests_processed_total",
		Help: "The total number of processed REST requests",
	}, []string{"method", "route", "status"})

	// GraphAttemptsTotal counts every attempt made against Microsoft Graph
	GraphAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meetupboard_graph_attempts_total",
		Help: "The total number of Graph request attempts by outcome",
	}, []string{"outcome"})

	// GraphRetriesTotal counts backoff sleeps before a retry
	GraphRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meetupboard_graph_retries_total",
		Help: "The total number of Graph request retries",
	})

	// GraphThrottledTotal counts 429 responses
	GraphThrottledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meetupboard_graph_throttled_total",
		Help: "The total number of throttled Graph responses",
	})

	// AvatarFallbackTotal counts avatars served from the initials generator
	AvatarFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meetupboard_avatar_fallback_total",
		Help: "The total number of avatars that fell back to generated initials",
	})

	// LeaderboardComputationsTotal counts leaderboard computations by result
	LeaderboardComputationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meetupboard_leaderboard_computations_total",
		Help: "The total number of leaderboard computations by result",
	}, []string{"result"})

	// LeaderboardLatency observes how long a full computation takes
	LeaderboardLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetupboard_leaderboard_latency_milliseconds",
		Help:    "Latency of leaderboard computations",
		Buckets: prometheus.ExponentialBuckets(50, 2, 10),
	})

	// LeaderboardSkippedUsersTotal counts users dropped under the skip failure policy
	LeaderboardSkippedUsersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meetupboard_leaderboard_skipped_users_total",
		Help: "The total number of matched users skipped after an enrichment failure",
	})
)

func setIsMetricsInit() bool {
	return atomic.CompareAndSwapUint32(&isMetricsInitVar, 0, 1)
}

// InitMetrics registers all collectors with the default registry. Calling it
// more than once is a no-op.
func InitMetrics() {
	if !setIsMetricsInit() {
		return
	}

	prometheus.MustRegister(activeRESTConnections)
	prometheus.MustRegister(responseTimeRESTAPI)
	prometheus.MustRegister(RESTRequestsTotal)
	prometheus.MustRegister(GraphAttemptsTotal)
	prometheus.MustRegister(GraphRetriesTotal)
	prometheus.MustRegister(GraphThrottledTotal)
	prometheus.MustRegister(AvatarFallbackTotal)
	prometheus.MustRegister(LeaderboardComputationsTotal)
	prometheus.MustRegister(LeaderboardLatency)
	prometheus.MustRegister(LeaderboardSkippedUsersTotal)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// unmatchedRoute labels requests no route matched, keeping arbitrary paths
// out of the label set
const unmatchedRoute = "unmatched"

// Middleware records request count, latency and in-flight requests. The
// route label is the chi route pattern so path parameters do not explode
// label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		activeRESTConnections.Inc()
		defer activeRESTConnections.Dec()

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RESTRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		responseTimeRESTAPI.WithLabelValues(r.Method, route).Observe(float64(time.Since(start).Milliseconds()))
	})
}
