// Package metrics exposes Prometheus metrics for the server.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all timesetor metrics.
type Registry struct {
	// Engines
	ActiveEngines      prometheus.Gauge
	ActivitySwitches   *prometheus.CounterVec
	DayEvents          *prometheus.CounterVec
	EngineRebuilds     prometheus.Counter
	EntertainmentSpeed prometheus.Histogram
	VirtualMinutes     *prometheus.CounterVec

	// Pomodoro and summaries
	PomodoroSessions *prometheus.CounterVec
	Summaries        *prometheus.CounterVec

	// API
	APIRequests   *prometheus.CounterVec
	APILatency    *prometheus.HistogramVec
	StreamClients prometheus.Gauge
}

// Get returns the process registry, registered with the Prometheus default
// registerer.
func Get() *Registry {
	once.Do(func() {
		registry = New(prometheus.DefaultRegisterer)
	})
	return registry
}

// New registers a fresh set of metrics with reg.
func New(reg prometheus.Registerer) *Registry {
	f := promauto.With(reg)
	r := &Registry{}

	r.ActiveEngines = f.NewGauge(prometheus.GaugeOpts{
		Name: "timesetor_active_engines",
		Help: "Number of users with a running virtual clock",
	})
	r.ActivitySwitches = f.NewCounterVec(prometheus.CounterOpts{
		Name: "timesetor_activity_switches_total",
		Help: "Activity changes by new activity",
	}, []string{"activity"})
	r.DayEvents = f.NewCounterVec(prometheus.CounterOpts{
		Name: "timesetor_day_events_total",
		Help: "Wake and sleep events recorded",
	}, []string{"event"})
	r.EngineRebuilds = f.NewCounter(prometheus.CounterOpts{
		Name: "timesetor_engine_rebuilds_total",
		Help: "Engines rebuilt from storage after a restart",
	})
	r.EntertainmentSpeed = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "timesetor_entertainment_multiplier",
		Help:    "Entertainment multiplier computed at wake",
		Buckets: []float64{0.5, 1, 1.5, 2, 3, 5, 7.5, 10},
	})
	r.VirtualMinutes = f.NewCounterVec(prometheus.CounterOpts{
		Name: "timesetor_logged_minutes_total",
		Help: "Minutes of closed activity intervals by clock",
	}, []string{"category", "clock"})

	r.PomodoroSessions = f.NewCounterVec(prometheus.CounterOpts{
		Name: "timesetor_pomodoro_sessions_total",
		Help: "Pomodoro sessions by type and event",
	}, []string{"type", "event"})
	r.Summaries = f.NewCounterVec(prometheus.CounterOpts{
		Name: "timesetor_summaries_total",
		Help: "AI summaries generated by type and result",
	}, []string{"type", "result"})

	r.APIRequests = f.NewCounterVec(prometheus.CounterOpts{
		Name: "timesetor_api_requests_total",
		Help: "API requests by route and status",
	}, []string{"method", "route", "status"})
	r.APILatency = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timesetor_api_request_duration_seconds",
		Help:    "API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	r.StreamClients = f.NewGauge(prometheus.GaugeOpts{
		Name: "timesetor_stream_clients",
		Help: "Connected websocket clock streams",
	})
	return r
}

// RecordAPIRequest records one finished API request.
func (r *Registry) RecordAPIRequest(method, route string, status int, seconds float64) {
	r.APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.APILatency.WithLabelValues(method, route).Observe(seconds)
}

// RecordInterval adds a closed activity interval.
func (r *Registry) RecordInterval(category string, realMinutes, virtualMinutes float64) {
	r.VirtualMinutes.WithLabelValues(category, "real").Add(realMinutes)
	r.VirtualMinutes.WithLabelValues(category, "virtual").Add(virtualMinutes)
}
