package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	stageTransitions *prometheus.CounterVec
	assignFailures   *prometheus.CounterVec
	missionsResolved *prometheus.CounterVec
	orphansReleased  prometheus.Counter
	activeMissions   prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Gauge) {
	stages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_stage_transitions_total",
			Help: "Number of mission stage transitions",
		},
		[]string{"event"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignment_failures_total",
			Help: "Number of failed assignment attempts",
		},
		[]string{"reason"},
	)
	resolved := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missions_resolved_total",
			Help: "Number of resolved missions",
		},
		[]string{"cause"},
	)
	orphans := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orphan_responders_released_total",
			Help: "Number of dangling BUSY responders released by self-heal",
		},
	)
	active := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_missions",
			Help: "Number of alerts currently paired with a responder",
		},
	)
	return stages, failures, resolved, orphans, active
}

func init() {
	stageTransitions, assignFailures, missionsResolved, orphansReleased, activeMissions = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(stageTransitions, assignFailures, missionsResolved, orphansReleased, activeMissions)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	stageTransitions, assignFailures, missionsResolved, orphansReleased, activeMissions = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
