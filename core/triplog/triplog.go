// Package triplog persists completed-trip records for driver earnings and
// operator reporting. Out of the dispatch core proper; appended to on mission
// completion only.
package triplog

import (
	"context"
	"time"
)

// Record captures one completed mission.
type Record struct {
	DriverID  string    `json:"driver_id"`
	PatientID string    `json:"patient_id"`
	Fare      float64   `json:"fare"`
	Timestamp time.Time `json:"timestamp"`
}

// Query filters trip records. Zero fields match everything.
type Query struct {
	DriverID string
	Start    time.Time
	End      time.Time
}

// Matches reports whether the record satisfies the query.
func (q Query) Matches(r Record) bool {
	if q.DriverID != "" && r.DriverID != q.DriverID {
		return false
	}
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return true
}

// Recorder stores trip records.
type Recorder interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopRecorder discards records. Used when no trip log is configured.
type NopRecorder struct{}

func (NopRecorder) Append(context.Context, Record) error           { return nil }
func (NopRecorder) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopRecorder) Close() error                                   { return nil }
