// Package metrics exposes machine activity as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a registry with the machine collectors.
type Collector struct {
	registry *prometheus.Registry

	steps       *prometheus.CounterVec
	halts       *prometheus.CounterVec
	resets      prometheus.Counter
	runDuration *prometheus.HistogramVec
}

// New creates a Collector on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turing_steps_total",
				Help: "Total number of computation steps, by source state",
			},
			[]string{"state"},
		),
		halts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turing_halts_total",
				Help: "Total number of halts, by reason",
			},
			[]string{"reason"},
		),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "turing_resets_total",
			Help: "Total number of machine resets",
		}),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "turing_run_duration_seconds",
				Help:    "Duration of run commands, by outcome",
				Buckets: prometheus.ExponentialBuckets(0.0001, 10, 7),
			},
			[]string{"outcome"},
		),
	}
	c.registry.MustRegister(c.steps, c.halts, c.resets, c.runDuration)
	return c
}

// Hooks returns lifecycle hooks feeding the collectors.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(e *domain.StepEvent) {
			c.steps.WithLabelValues(e.From).Inc()
		},
		OnHalt: func(e *domain.HaltEvent) {
			c.halts.WithLabelValues(string(e.Reason)).Inc()
		},
		OnReset: func(*domain.EventBase) {
			c.resets.Inc()
		},
	}
}

// ObserveRun records how long a run took and how it ended.
// A failed run is labelled "error".
func (c *Collector) ObserveRun(outcome domain.Outcome, err error, d time.Duration) {
	label := outcome.String()
	if err != nil {
		label = "error"
	}
	c.runDuration.WithLabelValues(label).Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
