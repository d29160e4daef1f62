package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metric collectors for the taskhub server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Rate limiting.
	RateLimitRejectionsTotal *prometheus.CounterVec

	// Auth metrics.
	AuthFailuresTotal  prometheus.Counter
	AuthSuccessesTotal prometheus.Counter

	// Service errors by taxonomy kind.
	ServiceErrorsTotal *prometheus.CounterVec

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		HTTPRequestSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskhub_http_request_size_bytes",
			Help:    "HTTP request size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"method", "path_pattern"}),

		HTTPResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskhub_http_response_size_bytes",
			Help:    "HTTP response size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"method", "path_pattern"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"scope"}),

		AuthFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_auth_failures_total",
			Help: "Total number of rejected bearer tokens.",
		}),

		AuthSuccessesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_auth_successes_total",
			Help: "Total number of accepted bearer tokens.",
		}),

		ServiceErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_service_errors_total",
			Help: "Total number of failed requests by error kind.",
		}, []string{"kind"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskhub_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.RateLimitRejectionsTotal,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.ServiceErrorsTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterPoolCollector exposes the connection pool of the named storage
// driver. It may be called once per registry.
func (m *Metrics) RegisterPoolCollector(driver string, stats PoolStatFunc) {
	m.registry.MustRegister(newPoolCollector(driver, stats))
}

// ObserveAuth records the outcome of a bearer token check.
func (m *Metrics) ObserveAuth(ok bool) {
	if ok {
		m.AuthSuccessesTotal.Inc()
		return
	}
	m.AuthFailuresTotal.Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// IncServiceError counts a failed request by its error kind.
func (m *Metrics) IncServiceError(kind string) {
	m.ServiceErrorsTotal.WithLabelValues(kind).Inc()
}
