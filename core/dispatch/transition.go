package dispatch

import (
	"fmt"

	"github.com/matriops/lifeline/core/model"
)

// Event is a trigger that may advance a mission's stage.
type Event int

const (
	// EventAssign pairs an idle responder with an ACTIVE alert.
	EventAssign Event = iota
	// EventConfirm is the driver's acknowledgment of an assignment.
	EventConfirm
	// EventArrive marks the responder on scene.
	EventArrive
	// EventTransport starts patient transport; navigation only.
	EventTransport
	// EventComplete finishes the mission.
	EventComplete
	// EventClear is the operator's manual early termination.
	EventClear
	// EventCancel rolls back the assignment, keeping the alert live.
	EventCancel
)

func (e Event) String() string {
	switch e {
	case EventAssign:
		return "assign"
	case EventConfirm:
		return "confirm"
	case EventArrive:
		return "arrive"
	case EventTransport:
		return "transport"
	case EventComplete:
		return "complete"
	case EventClear:
		return "clear"
	case EventCancel:
		return "cancel"
	}
	return "unknown"
}

// Next is the mission transition table as one pure function: it maps the
// current stage and an event to the next stage without touching any state.
// Side effects are applied by the Coordinator only after Next approves.
func Next(cur model.AlertStatus, ev Event) (model.AlertStatus, error) {
	switch ev {
	case EventAssign:
		if cur == model.AlertActive {
			return model.AlertDriverAccepted, nil
		}
	case EventConfirm:
		// Idempotent re-affirmation of an existing assignment.
		if cur == model.AlertDriverAccepted {
			return model.AlertDriverAccepted, nil
		}
	case EventArrive:
		if cur == model.AlertDriverAccepted {
			return model.AlertDriverArrived, nil
		}
	case EventTransport:
		// Stage does not change; the driver is navigating.
		if cur == model.AlertDriverArrived {
			return model.AlertDriverArrived, nil
		}
	case EventComplete:
		if cur == model.AlertDriverArrived {
			return model.AlertResolved, nil
		}
	case EventClear:
		// Operator override terminates from any live stage.
		if !cur.Terminal() {
			return model.AlertResolved, nil
		}
	case EventCancel:
		if cur.Assigned() {
			return model.AlertActive, nil
		}
	}
	return cur, fmt.Errorf("%w: %s in stage %s", model.ErrInvalidTransition, ev, cur)
}
