package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/gt"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/secmon-lab/meetupboard/pkg/metrics"
)

func TestInitMetricsIsIdempotent(t *testing.T) {
	metrics.InitMetrics()
	metrics.InitMetrics()
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/api/getleaders/{userId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	counter := metrics.RESTRequestsTotal.WithLabelValues(http.MethodGet, "/api/getleaders/{userId}", "200")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"u1", "u2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/getleaders/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	gt.Value(t, testutil.ToFloat64(counter)-before).Equal(2.0)
}

func TestMiddlewareLabelsUnmatchedPaths(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	counter := metrics.RESTRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/random-1", "/wp-admin/setup.php"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	gt.Value(t, testutil.ToFloat64(counter)-before).Equal(2.0)
}

func TestHandlerServesRegistry(t *testing.T) {
	metrics.InitMetrics()
	metrics.GraphRetriesTotal.Inc()

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains("meetupboard_graph_retries_total")
}
