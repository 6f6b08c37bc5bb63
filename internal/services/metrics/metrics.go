package metrics

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const divisor = 100

// Metrics holds Prometheus metric vectors for the weather-news service.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics
	ProviderRequestsTotal *prometheus.CounterVec
	WorkflowErrorsTotal   *prometheus.CounterVec
	SearchRequestsTotal   prometheus.Counter
}

// NewMetrics constructs and registers all service metrics on a private registry.
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests received",
			},
			[]string{"method", "endpoint", "status_class"},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: serviceName,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		ProviderRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "provider_requests_total",
				Help:      "Outbound provider requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		WorkflowErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "workflow_errors_total",
				Help:      "Workflow failures by error kind",
			},
			[]string{"kind"},
		),

		SearchRequestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "search_requests_total",
				Help:      "City-search requests dispatched after debounce",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ProviderRequestsTotal,
		m.WorkflowErrorsTotal,
		m.SearchRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// HTTPMiddleware returns a Gin middleware to instrument HTTP endpoints.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d := time.Since(start)

		m.HTTPRequestsTotal.With(prometheus.Labels{
			"method":       c.Request.Method,
			"endpoint":     c.FullPath(),
			"status_class": getStatusClass(c.Writer.Status()),
		}).Inc()
		m.HTTPRequestDuration.With(prometheus.Labels{
			"method":   c.Request.Method,
			"endpoint": c.FullPath(),
		}).Observe(d.Seconds())
	}
}

// RecordProviderRequest counts one outbound provider call by outcome.
func (m *Metrics) RecordProviderRequest(provider, outcome string) {
	m.ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordWorkflowError counts one workflow failure by kind.
func (m *Metrics) RecordWorkflowError(kind string) {
	m.WorkflowErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordSearch counts one dispatched city-search request.
func (m *Metrics) RecordSearch() {
	m.SearchRequestsTotal.Inc()
}

func getStatusClass(code int) string {
	return fmt.Sprintf("%dxx", code/divisor)
}
