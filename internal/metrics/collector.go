// Package metrics exposes prometheus instrumentation for the deliberation
// pipeline and the event hub.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates all courtd metrics.
type Collector struct {
	// Job metrics
	JobsSubmitted prometheus.Counter
	JobsCompleted *prometheus.CounterVec
	JobsActive    prometheus.Gauge
	JobDuration   prometheus.Histogram

	// Pipeline metrics
	StageDuration  *prometheus.HistogramVec
	TurnsGenerated *prometheus.CounterVec
	AgentErrors    *prometheus.CounterVec

	// Event hub metrics
	EventsEmitted *prometheus.CounterVec
	RoomSessions  prometheus.Gauge
}

// NewCollector creates and describes all metrics.
func NewCollector() *Collector {
	return &Collector{
		JobsSubmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "court_jobs_submitted_total",
				Help: "Number of deliberation jobs submitted",
			},
		),
		JobsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "court_jobs_completed_total",
				Help: "Number of jobs reaching a terminal state",
			},
			[]string{"state"},
		),
		JobsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "court_jobs_active",
				Help: "Number of jobs currently running",
			},
		),
		JobDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "court_job_duration_seconds",
				Help:    "End-to-end job duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "court_stage_duration_seconds",
				Help:    "Duration of individual pipeline stages in seconds",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),
		TurnsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "court_turns_generated_total",
				Help: "Number of debate turns generated",
			},
			[]string{"role"},
		),
		AgentErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "court_agent_errors_total",
				Help: "Number of generation agent failures",
			},
			[]string{"stage"},
		),
		EventsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "court_events_emitted_total",
				Help: "Number of events emitted onto job rooms",
			},
			[]string{"type"},
		),
		RoomSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "court_room_sessions",
				Help: "Number of websocket sessions currently joined to job rooms",
			},
		),
	}
}

// Register registers every metric with the given registry.
func (c *Collector) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		c.JobsSubmitted,
		c.JobsCompleted,
		c.JobsActive,
		c.JobDuration,
		c.StageDuration,
		c.TurnsGenerated,
		c.AgentErrors,
		c.EventsEmitted,
		c.RoomSessions,
	)
}

// Handler returns the HTTP handler serving the metrics registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
