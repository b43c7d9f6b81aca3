package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the activation counters
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeNotFound    = "not_found"
	OutcomeConflict    = "conflict"
	OutcomeUnavailable = "unavailable"
)

// Metrics holds the activation counters on a private registry
type Metrics struct {
	registry        *prometheus.Registry
	activationTotal *prometheus.CounterVec
	licensesCreated *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		activationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "niyyah",
			Name:      "activation_requests_total",
			Help:      "Activation service calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		licensesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "niyyah",
			Name:      "licenses_created_total",
			Help:      "License intake attempts by source and result.",
		}, []string{"source", "result"}),
	}

	m.registry.MustRegister(
		m.activationTotal,
		m.licensesCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveActivation counts one activation service call. Safe on a nil receiver.
func (m *Metrics) ObserveActivation(operation, outcome string) {
	if m == nil {
		return
	}
	m.activationTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveLicense counts one license intake attempt. Safe on a nil receiver.
func (m *Metrics) ObserveLicense(source, result string) {
	if m == nil {
		return
	}
	m.licensesCreated.WithLabelValues(source, result).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
