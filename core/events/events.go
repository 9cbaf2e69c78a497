package events

import (
	"time"

	"github.com/matriops/lifeline/core/model"
)

// AlertRaisedEvent is published when a patient (or guardian) triggers an SOS.
type AlertRaisedEvent struct {
	Alert model.Alert
}

// AssignEvent is published when a responder is paired with an alert.
type AssignEvent struct {
	PatientID   string
	ResponderID string
	By          model.Actor
}

// StageEvent is published when a mission advances to a new stage.
type StageEvent struct {
	PatientID   string
	ResponderID string
	From        model.AlertStatus
	To          model.AlertStatus
	At          time.Time
}

// ResolveCause distinguishes how a mission ended.
type ResolveCause string

const (
	ResolveCompleted ResolveCause = "completed"
	ResolveCleared   ResolveCause = "cleared"
)

// ResolveEvent is published when an alert is resolved and removed.
type ResolveEvent struct {
	PatientID   string
	ResponderID string
	Cause       ResolveCause
}

// CancelEvent is published when an assignment is rolled back to ACTIVE.
type CancelEvent struct {
	PatientID   string
	ResponderID string
}

// OrphanReleasedEvent is published when self-heal releases a BUSY responder
// whose alert no longer exists.
type OrphanReleasedEvent struct {
	ResponderID string
	PatientID   string
}
