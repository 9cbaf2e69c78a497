package metrics

import coremetrics "github.com/matriops/lifeline/core/metrics"

// MultiSink fans mission events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMissionEvent forwards the events to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordMissionEvent(evs []coremetrics.MissionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordMissionEvent(evs); err != nil {
			return err
		}
	}
	return nil
}

// RecordFleetSize forwards fleet size samples when supported by the sink.
func (m *MultiSink) RecordFleetSize(size int) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(coremetrics.FleetSizeRecorder); ok {
			if err := fr.RecordFleetSize(size); err != nil {
				return err
			}
		}
	}
	return nil
}
