package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's prometheus collectors. A nil *Metrics is valid
// and records nothing, so tests can pass nil.
type Metrics struct {
	WorkflowRequests  *prometheus.CounterVec
	WorkflowDurations *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDurations     *prometheus.HistogramVec
	EventsPublished   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WorkflowRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_requests_total",
				Help: "Total number of workflow operation invocations.",
			},
			[]string{"workflow", "operation", "outcome"},
		),
		WorkflowDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workflow_duration_seconds",
				Help:    "Duration of workflow operations in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"workflow", "operation"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests served.",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domain_events_total",
				Help: "Count of domain events published on the bus.",
			},
			[]string{"event"},
		),
	}
	reg.MustRegister(
		m.WorkflowRequests,
		m.WorkflowDurations,
		m.HTTPRequests,
		m.HTTPDurations,
		m.EventsPublished,
	)
	return m
}

// ObserveWorkflow records one workflow operation outcome.
func (m *Metrics) ObserveWorkflow(workflow, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.WorkflowRequests.WithLabelValues(workflow, operation, outcome).Inc()
	m.WorkflowDurations.WithLabelValues(workflow, operation).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(route, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDurations.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// CountEvent records one published domain event.
func (m *Metrics) CountEvent(name string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(name).Inc()
}
