package model

import (
	"fmt"
	"time"
)

// AlertStatus describes the lifecycle stage of an SOS alert.
type AlertStatus string

const (
	AlertActive         AlertStatus = "ACTIVE"
	AlertDriverAccepted AlertStatus = "DRIVER_ACCEPTED"
	AlertDriverArrived  AlertStatus = "DRIVER_ARRIVED"
	AlertResolved       AlertStatus = "RESOLVED"
)

// Valid reports whether the status is one of the known stages.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertActive, AlertDriverAccepted, AlertDriverArrived, AlertResolved:
		return true
	}
	return false
}

// Assigned reports whether the status requires a paired responder.
func (s AlertStatus) Assigned() bool {
	return s == AlertDriverAccepted || s == AlertDriverArrived
}

// Terminal reports whether the status ends the alert lifecycle.
func (s AlertStatus) Terminal() bool { return s == AlertResolved }

// Actor identifies who performed an action on behalf of a patient.
type Actor string

const (
	ActorMother   Actor = "mother"
	ActorGuardian Actor = "guardian"
	ActorDoctor   Actor = "doctor"
	ActorDriver   Actor = "driver"
	ActorOperator Actor = "operator"
)

// Contact is an emergency contact notified when an SOS fires.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Alert is a patient's active request for emergency assistance. Alerts are
// keyed by the patient identifier: one live alert per patient.
type Alert struct {
	PatientID string
	Name      string
	Phone     string
	Position  Position
	Status    AlertStatus
	// Responder holds the assigned responder ID, empty while unassigned.
	Responder string
	RaisedBy  Actor
	Contacts  []Contact
	CreatedAt time.Time
}

// Validate checks the status/assignment invariant on the alert alone.
// Cross-record consistency with the responder is checked by Mission.
func (a Alert) Validate() error {
	if a.PatientID == "" {
		return fmt.Errorf("alert missing patient id")
	}
	if !a.Status.Valid() {
		return fmt.Errorf("alert %s: unknown status %q", a.PatientID, a.Status)
	}
	if a.Status == AlertActive && a.Responder != "" {
		return fmt.Errorf("alert %s: active but assigned to %s", a.PatientID, a.Responder)
	}
	if a.Status.Assigned() && a.Responder == "" {
		return fmt.Errorf("alert %s: status %s without responder", a.PatientID, a.Status)
	}
	return nil
}
