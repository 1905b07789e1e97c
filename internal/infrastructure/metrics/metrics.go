package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Validations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glance_github_validations_total",
			Help: "GitHub token validations by outcome reason (ok on success).",
		},
		[]string{"reason"},
	)

	FetchCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glance_fetch_cycles_total",
			Help: "Widget fetch cycles by widget type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	StoreWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glance_store_writes_total",
			Help: "Full-collection writes by collection and result.",
		},
		[]string{"collection", "result"},
	)

	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glance_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(Validations, FetchCycles, StoreWrites, RequestCounter)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware counts requests per chi route pattern so ids do not explode label cardinality
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		RequestCounter.WithLabelValues(route, r.Method, http.StatusText(rw.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent event streams working behind the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
