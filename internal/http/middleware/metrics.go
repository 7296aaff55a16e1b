package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// sizeBuckets cover JSON bodies from a couple hundred bytes up to a few MiB
// of uploaded image echoed back by /uploads.
var sizeBuckets = prometheus.ExponentialBuckets(256, 4, 9)

// httpCollectors are the series exported on /metrics. The path label is the
// route template (see routeLabel) so unknown URLs cannot grow cardinality.
type httpCollectors struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
	size     *prometheus.HistogramVec
	limited  *prometheus.CounterVec
}

func newHTTPCollectors() httpCollectors {
	return httpCollectors{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Requests currently being served.",
		}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Response body size by method and route.",
			Buckets: sizeBuckets,
		}, []string{"method", "path"}),
		limited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected with 429, by limiter and route.",
		}, []string{"limiter", "path"}),
	}
}

func (m httpCollectors) all() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration, m.inflight, m.size, m.limited}
}

var (
	collectors = newHTTPCollectors()

	httpReqs        = collectors.requests
	httpInflight    = collectors.inflight
	httpRateLimited = collectors.limited
)

func init() {
	prometheus.MustRegister(collectors.all()...)
}

// Metrics records one sample per request in the default registry. Mount it
// before the limiters so 429s are counted too.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		collectors.inflight.Inc()
		start := time.Now()

		defer func() {
			collectors.inflight.Dec()
			method, path := c.Request.Method, routeLabel(c)
			collectors.requests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
			collectors.duration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			// Size is -1 when nothing was written.
			if n := c.Writer.Size(); n >= 0 {
				collectors.size.WithLabelValues(method, path).Observe(float64(n))
			}
		}()

		c.Next()
	}
}
