// Package metrics exposes Prometheus instruments for the message pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rentverify"

// Outcome label values.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
)

// Metrics holds every instrument. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	inbound     *prometheus.CounterVec
	outbound    *prometheus.CounterVec
	logins      *prometheus.CounterVec
	reqDuration *prometheus.HistogramVec
}

// New registers the instruments on reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		inbound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Inbound SMS webhook deliveries by record category and outcome.",
		}, []string{"category", "outcome"}),
		outbound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_messages_total",
			Help:      "Operator-initiated SMS sends by outcome.",
		}, []string{"outcome"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Dashboard login attempts by outcome.",
		}, []string{"outcome"}),
		reqDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Inbound counts one webhook delivery. category is empty for rejected payloads.
func (m *Metrics) Inbound(category, outcome string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "unknown"
	}
	m.inbound.WithLabelValues(category, outcome).Inc()
}

func (m *Metrics) Outbound(outcome string) {
	if m == nil {
		return
	}
	m.outbound.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Login(success bool) {
	if m == nil {
		return
	}
	outcome := OutcomeFailure
	if success {
		outcome = OutcomeSuccess
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.reqDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
