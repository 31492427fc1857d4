package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RequestsCollectorName = "http_requests_total"
	LatencyCollectorName  = "http_request_duration_milliseconds"
)

var bucketsConfig = []float64{5, 25, 100, 500, 1000, 5000}

// Middleware counts requests and their latency partitioned by status code,
// method and route.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewMiddleware(name string) *Middleware {
	var m Middleware
	m.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        RequestsCollectorName,
			Help:        "Number of HTTP requests partitioned by status code, method and HTTP path.",
			ConstLabels: prometheus.Labels{"service": name},
		}, []string{"code", "method", "path"})

	m.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        LatencyCollectorName,
		Help:        "Time spent on the request partitioned by status code, method and HTTP path.",
		ConstLabels: prometheus.Labels{"service": name},
		Buckets:     bucketsConfig,
	}, []string{"code", "method", "path"})

	return &m
}

// Handler returns the gin middleware.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		code := strconv.Itoa(c.Writer.Status())
		m.requests.WithLabelValues(code, c.Request.Method, path).Inc()
		m.latency.WithLabelValues(code, c.Request.Method, path).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// Collectors returns the collectors for a custom registry.
func (m *Middleware) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.latency}
}

// MustRegisterDefault registers the collectors with the default registerer.
func (m *Middleware) MustRegisterDefault() {
	if m.requests == nil || m.latency == nil {
		panic("collectors must be set")
	}
	prometheus.MustRegister(m.requests)
	prometheus.MustRegister(m.latency)
}
