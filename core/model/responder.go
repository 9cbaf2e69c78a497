package model

import (
	"fmt"
	"time"
)

// ResponderStatus describes the availability of a responder unit.
type ResponderStatus string

const (
	ResponderIdle    ResponderStatus = "IDLE"
	ResponderBusy    ResponderStatus = "BUSY"
	ResponderOffline ResponderStatus = "OFFLINE"
)

// Valid reports whether the status is one of the known values.
func (s ResponderStatus) Valid() bool {
	switch s {
	case ResponderIdle, ResponderBusy, ResponderOffline:
		return true
	}
	return false
}

// VehicleKind categorizes a responder unit.
type VehicleKind string

const (
	KindAmbulance VehicleKind = "Ambulance"
	KindTransport VehicleKind = "Transport"
)

// Telemetry carries presentational hints shown on the console. These values
// are non-authoritative and never participate in dispatch decisions.
type Telemetry struct {
	FuelPercent int `json:"fuel,omitempty"`
	ETAMinutes  int `json:"eta,omitempty"`
}

// Responder is a driver/ambulance unit capable of being dispatched.
type Responder struct {
	ID       string
	Name     string
	Kind     VehicleKind
	Position Position
	Status   ResponderStatus
	// Assignment holds the alert (patient) ID of the current mission,
	// empty while idle or offline.
	Assignment string
	// OfflineRequested is set when the driver toggles offline mid-mission.
	// The unit stays BUSY until released, then resolves to OFFLINE.
	OfflineRequested bool
	Telemetry        Telemetry
	UpdatedAt        time.Time
}

// Validate checks the status/assignment invariant.
func (r Responder) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("responder missing id")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("responder %s: unknown status %q", r.ID, r.Status)
	}
	if r.Status == ResponderBusy && r.Assignment == "" {
		return fmt.Errorf("responder %s: busy without assignment", r.ID)
	}
	if r.Status != ResponderBusy && r.Assignment != "" {
		return fmt.Errorf("responder %s: %s but assigned to %s", r.ID, r.Status, r.Assignment)
	}
	return nil
}

// Selectable reports whether the unit may be chosen for a new mission.
// Offline and busy units are excluded.
func (r Responder) Selectable() bool { return r.Status == ResponderIdle }
