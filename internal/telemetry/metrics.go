package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects gateway and Google Ads call metrics.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	authDeniedTotal  prometheus.Counter
	adsRequestsTotal *prometheus.CounterVec
	adsDuration      *prometheus.HistogramVec
}

// NewMetrics creates a metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "HTTP requests handled by the gateway.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		authDeniedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_auth_denied_total",
			Help: "Requests rejected by the bearer-token check.",
		}),
		adsRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "googleads_requests_total",
			Help: "Google Ads API calls by operation and outcome.",
		}, []string{"operation", "status"}),
		adsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "googleads_request_duration_seconds",
			Help:    "Google Ads API call latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.authDeniedTotal,
		m.adsRequestsTotal,
		m.adsDuration,
	)
	return m
}

// RecordRequest records one completed gateway request.
func (m *Metrics) RecordRequest(route, method string, code int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordAuthDenied records a rejected request.
func (m *Metrics) RecordAuthDenied() {
	m.authDeniedTotal.Inc()
}

// RecordAdsCall records one Google Ads API call from the tool layer.
func (m *Metrics) RecordAdsCall(operation, status string, duration time.Duration) {
	m.adsRequestsTotal.WithLabelValues(operation, status).Inc()
	m.adsDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
