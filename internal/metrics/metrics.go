// Package metrics exposes Prometheus counters for investment and escrow activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	InvestmentsBought  prometheus.Counter
	InvestmentsSold    prometheus.Counter
	ValueUpdates       *prometheus.CounterVec
	EscrowTransitions  *prometheus.CounterVec
	EscrowAutoReleased prometheus.Counter
	JobRuns            *prometheus.CounterVec
}

// New creates the collectors on a fresh registry together with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		InvestmentsBought: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "property_investment",
			Name:      "investments_bought_total",
			Help:      "Number of fractional investments purchased.",
		}),
		InvestmentsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "property_investment",
			Name:      "investments_sold_total",
			Help:      "Number of investments liquidated.",
		}),
		ValueUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "property_investment",
			Name:      "value_updates_total",
			Help:      "Number of investment property value updates by source.",
		}, []string{"source"}),
		EscrowTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "property_investment",
			Name:      "escrow_transitions_total",
			Help:      "Number of escrow payment transitions by target status.",
		}, []string{"to"}),
		EscrowAutoReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "property_investment",
			Name:      "escrow_auto_released_total",
			Help:      "Number of escrow payments released after the inspection window expired.",
		}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "property_investment",
			Name:      "scheduled_job_runs_total",
			Help:      "Number of scheduled job runs by job and outcome.",
		}, []string{"job", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.InvestmentsBought,
		m.InvestmentsSold,
		m.ValueUpdates,
		m.EscrowTransitions,
		m.EscrowAutoReleased,
		m.JobRuns,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
