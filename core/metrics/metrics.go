// Package metrics defines the sink contract mission events are recorded
// through. Implementations live in infra/metrics.
package metrics

import (
	"time"

	"github.com/matriops/lifeline/core/model"
)

// MissionEvent represents one dispatch lifecycle step to be recorded.
type MissionEvent struct {
	PatientID   string
	ResponderID string
	Stage       model.AlertStatus
	// Cause is set on resolution events ("completed", "cleared").
	Cause string
	Time  time.Time
}

// Sink records mission events for observability purposes.
type Sink interface {
	RecordMissionEvent(events []MissionEvent) error
}

// FleetSizeRecorder is implemented by sinks able to record the number of
// registered responder units.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordMissionEvent([]MissionEvent) error { return nil }
func (NopSink) RecordFleetSize(int) error               { return nil }

// Config defines the metrics endpoints.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
