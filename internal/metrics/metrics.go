// Package metrics holds the Prometheus collectors exported at /api/metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder then does nothing.
type Metrics struct {
	Registry *prometheus.Registry

	transitions    *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	routeFallbacks prometheus.Counter
	httpDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pothik_booking_transitions_total",
			Help: "Booking lifecycle transitions by outcome.",
		}, []string{"transition", "outcome"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pothik_locator_resolutions_total",
			Help: "Fuzzy location lookups by outcome.",
		}, []string{"outcome"}),
		routeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pothik_route_fallbacks_total",
			Help: "Trip plans served with the straight-line estimate.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pothik_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.transitions, m.resolutions, m.routeFallbacks, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Transition(name string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.transitions.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) Resolution(found bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if found {
		outcome = "hit"
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RouteFallback() {
	if m == nil {
		return
	}
	m.routeFallbacks.Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
