// Package metrics exposes authentication counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/dmitrijs2005/notesauth/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notesauth"

// Collector counts rotation, login and registration events on its own
// registry. It implements services.RotationObserver and services.AuthObserver.
type Collector struct {
	registry      *prometheus.Registry
	rotations     *prometheus.CounterVec
	logins        *prometheus.CounterVec
	registrations prometheus.Counter
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_rotations_total",
			Help:      "Refresh session rotation attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Successful user registrations.",
		}),
	}

	c.registry.MustRegister(
		c.rotations,
		c.logins,
		c.registrations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// pre-create label values so every series is exported from the start
	for _, o := range []services.Outcome{services.OutcomeRotated, services.OutcomeNoSession, services.OutcomeInvalid} {
		c.rotations.WithLabelValues(o.String())
	}
	c.logins.WithLabelValues("success")
	c.logins.WithLabelValues("failure")

	return c
}

func (c *Collector) ObserveRotation(o services.Outcome) {
	c.rotations.WithLabelValues(o.String()).Inc()
}

func (c *Collector) ObserveLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveRegistration() {
	c.registrations.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

var (
	_ services.RotationObserver = (*Collector)(nil)
	_ services.AuthObserver     = (*Collector)(nil)
)
