package accesskit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for access decisions.
type Metrics struct {
	DecisionsTotal           *prometheus.CounterVec
	DecisionDuration         prometheus.Histogram
	CrossOrganizationTotal   *prometheus.CounterVec
	PrincipalResolutionTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accesskit_decisions_total",
				Help: "Total number of access decisions by outcome and reason",
			},
			[]string{"outcome", "reason"},
		),
		DecisionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "accesskit_decision_duration_seconds",
				Help:    "Time spent evaluating access requirements",
				Buckets: prometheus.ExponentialBuckets(0.000001, 4, 8),
			},
		),
		CrossOrganizationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accesskit_cross_organization_attempts_total",
				Help: "Resource checks where the principal and resource organizations differ",
			},
			[]string{"outcome"},
		),
		PrincipalResolutionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accesskit_principal_resolutions_total",
				Help: "Principal resolutions at the HTTP boundary by result",
			},
			[]string{"result"},
		),
	}

	registerer.MustRegister(
		m.DecisionsTotal,
		m.DecisionDuration,
		m.CrossOrganizationTotal,
		m.PrincipalResolutionTotal,
	)
	return m
}

// ObserveDecision records one decision.
func (m *Metrics) ObserveDecision(d Decision, elapsed time.Duration) {
	outcome := d.Outcome.String()
	m.DecisionsTotal.WithLabelValues(outcome, d.Reason).Inc()
	m.DecisionDuration.Observe(elapsed.Seconds())
	if d.CrossOrganization {
		m.CrossOrganizationTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveResolution records the result of resolving a principal:
// "ok", "anonymous", "rejected" or "error".
func (m *Metrics) ObserveResolution(result string) {
	m.PrincipalResolutionTotal.WithLabelValues(result).Inc()
}
