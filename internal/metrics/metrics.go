// Package metrics exposes cycle, login and remote-write counters for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	cyclesTotal   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	writesTotal   *prometheus.CounterVec
	loginsTotal   *prometheus.CounterVec
	tankLevel     *prometheus.GaugeVec
	breakerState  *prometheus.GaugeVec
}

// New registers the collectors on a private registry, so several instances
// (tests, the Lambda and the server) never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pump_cycles_total",
			Help: "Decision cycles by site, terminal status and HTTP-style status code.",
		}, []string{"site", "status", "code"}),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pump_cycle_duration_seconds",
			Help:    "Wall time of one decision cycle.",
			Buckets: prometheus.DefBuckets,
		}, []string{"site"}),
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pump_remote_writes_total",
			Help: "Output writes issued to Sensaphone.net by result.",
		}, []string{"site", "result"}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pump_session_logins_total",
			Help: "Sensaphone.net logins by result.",
		}, []string{"result"}),
		tankLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pump_tank_level",
			Help: "Last parsed tank level, in the site's level unit.",
		}, []string{"site"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pump_breaker_state",
			Help: "Remote API circuit breaker (0 closed, 1 half-open, 2 open).",
		}, []string{"target"}),
	}

	m.registry.MustRegister(
		m.cyclesTotal,
		m.cycleDuration,
		m.writesTotal,
		m.loginsTotal,
		m.tankLevel,
		m.breakerState,
		collectors.NewGoCollector(),
	)
	m.breakerState.WithLabelValues("sensaphone").Set(0)
	return m
}

func (m *Metrics) ObserveCycle(site, status string, code int, took time.Duration) {
	m.cyclesTotal.WithLabelValues(site, status, strconv.Itoa(code)).Inc()
	m.cycleDuration.WithLabelValues(site).Observe(took.Seconds())
}

func (m *Metrics) ObserveWrite(site string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.writesTotal.WithLabelValues(site, result).Inc()
}

func (m *Metrics) ObserveLogin(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.loginsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) SetTankLevel(site string, level float64) {
	m.tankLevel.WithLabelValues(site).Set(level)
}

// SetBreakerState records a breaker transition; state follows gobreaker's
// numbering.
func (m *Metrics) SetBreakerState(target string, state int) {
	m.breakerState.WithLabelValues(target).Set(float64(state))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
