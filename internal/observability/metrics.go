package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	ticketEvents    *prometheus.CounterVec
	operationErrors *prometheus.CounterVec
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "HTTP requests that ended in a domain error",
			},
			[]string{"method", "path", "code"},
		),
		ticketEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_events_total",
				Help: "Ticket lifecycle events",
			},
			[]string{"type"},
		),
		operationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_operation_errors_total",
				Help: "Ticket operations that failed, by error code",
			},
			[]string{"operation", "code"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.ticketEvents,
		m.operationErrors,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest records a finished HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError counts a request that failed with a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordTicketEvent counts a lifecycle event.
func (m *Metrics) RecordTicketEvent(eventType string) {
	if m == nil {
		return
	}
	m.ticketEvents.WithLabelValues(eventType).Inc()
}

// RecordOperationError counts a failed ticket operation.
func (m *Metrics) RecordOperationError(operation, code string) {
	if m == nil {
		return
	}
	m.operationErrors.WithLabelValues(operation, code).Inc()
}
