// Package metrics exposes Prometheus instrumentation for the client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "assistant_client"

// Outcome labels for submitted queries.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBusy    = "busy"
	OutcomeEmpty   = "empty"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	queries     *prometheus.CounterVec
	confidence  prometheus.Histogram
	inFlight    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Requests sent to the assistant API by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of assistant API requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Submitted queries by outcome.",
		}, []string{"outcome"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_confidence",
			Help:      "Confidence score reported for successful answers.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queries_in_flight",
			Help:      "1 while a query awaits its response.",
		}),
	}

	m.registry.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.queries,
		m.confidence,
		m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest implements apiclient.Observer. Transport failures are
// recorded with code "error".
func (m *Metrics) ObserveRequest(endpoint string, status int, elapsed time.Duration, err error) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(endpoint, code).Inc()
	m.apiLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) QueryStarted() {
	m.inFlight.Set(1)
}

func (m *Metrics) QueryFinished(outcome string, confidence float64) {
	m.inFlight.Set(0)
	m.queries.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.confidence.Observe(confidence)
	}
}

// QueryRejected counts submissions that never reached the API.
func (m *Metrics) QueryRejected(outcome string) {
	m.queries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
