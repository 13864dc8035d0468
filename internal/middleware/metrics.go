package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/menezmethod/salute/internal/router"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salute",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by method, route, and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "salute",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "salute",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})

	// RateLimitRejections counts requests rejected by the rate limiter.
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "salute",
		Name:      "ratelimit_rejections_total",
		Help:      "Total requests rejected by the rate limiter.",
	})
)

// Metrics returns middleware that records Prometheus metrics for every
// request. The route label uses the matched route pattern (bounded
// cardinality); unmatched requests are labeled "unmatched".
//
// Counter and histogram are recorded on finalize, not when next returns:
// an error escaping the chain is converted to its 500 envelope after the
// chain unwinds, and panics never return through this frame at all. The
// finalize hook is the only point that sees the status actually sent.
func Metrics() router.Middleware {
	return func(req *router.Request, res *router.Response, next router.Next) error {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		res.OnFinalize(func(r *router.Response) {
			route := req.Route
			if route == "" {
				route = "unmatched"
			}
			httpRequestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(r.StatusCode())).Inc()
			httpRequestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
		})

		return next()
	}
}
