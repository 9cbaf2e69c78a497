package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/matriops/lifeline/core/metrics"
)

// PromSink records mission events in Prometheus metrics.
type PromSink struct {
	events *prometheus.CounterVec
	fleet  prometheus.Gauge
}

// NewPromSink registers mission metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_events_total",
		Help: "Total number of mission lifecycle events",
	}, []string{"stage", "resolved"})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_registered_responders",
		Help: "Number of registered responder units",
	})

	if err := reg.Register(events); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			events = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fleet); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fleet = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	return &PromSink{events: events, fleet: fleet}, nil
}

// RecordMissionEvent counts each lifecycle event by stage.
func (s *PromSink) RecordMissionEvent(evs []coremetrics.MissionEvent) error {
	for _, ev := range evs {
		resolved := strconv.FormatBool(ev.Cause != "")
		s.events.WithLabelValues(string(ev.Stage), resolved).Inc()
	}
	return nil
}

// RecordFleetSize tracks the number of registered responders.
func (s *PromSink) RecordFleetSize(size int) error {
	s.fleet.Set(float64(size))
	return nil
}
