package dispatch

import (
	"errors"
	"testing"

	"github.com/matriops/lifeline/core/model"
)

func TestNext(t *testing.T) {
	cases := []struct {
		name string
		cur  model.AlertStatus
		ev   Event
		want model.AlertStatus
		ok   bool
	}{
		{"assign active", model.AlertActive, EventAssign, model.AlertDriverAccepted, true},
		{"assign accepted", model.AlertDriverAccepted, EventAssign, "", false},
		{"assign arrived", model.AlertDriverArrived, EventAssign, "", false},
		{"confirm accepted", model.AlertDriverAccepted, EventConfirm, model.AlertDriverAccepted, true},
		{"confirm active", model.AlertActive, EventConfirm, "", false},
		{"arrive accepted", model.AlertDriverAccepted, EventArrive, model.AlertDriverArrived, true},
		{"arrive active", model.AlertActive, EventArrive, "", false},
		{"arrive twice", model.AlertDriverArrived, EventArrive, "", false},
		{"transport arrived", model.AlertDriverArrived, EventTransport, model.AlertDriverArrived, true},
		{"transport accepted", model.AlertDriverAccepted, EventTransport, "", false},
		{"complete arrived", model.AlertDriverArrived, EventComplete, model.AlertResolved, true},
		{"complete accepted", model.AlertDriverAccepted, EventComplete, "", false},
		{"complete active", model.AlertActive, EventComplete, "", false},
		{"clear active", model.AlertActive, EventClear, model.AlertResolved, true},
		{"clear accepted", model.AlertDriverAccepted, EventClear, model.AlertResolved, true},
		{"clear arrived", model.AlertDriverArrived, EventClear, model.AlertResolved, true},
		{"clear resolved", model.AlertResolved, EventClear, "", false},
		{"cancel accepted", model.AlertDriverAccepted, EventCancel, model.AlertActive, true},
		{"cancel arrived", model.AlertDriverArrived, EventCancel, model.AlertActive, true},
		{"cancel active", model.AlertActive, EventCancel, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Next(tc.cur, tc.ev)
			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tc.want {
					t.Fatalf("got %s, want %s", got, tc.want)
				}
				return
			}
			if !errors.Is(err, model.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestNextIsPure(t *testing.T) {
	// Same input twice yields the same output; the table holds no state.
	a, err1 := Next(model.AlertActive, EventAssign)
	b, err2 := Next(model.AlertActive, EventAssign)
	if a != b || (err1 == nil) != (err2 == nil) {
		t.Fatalf("transition function is not pure: %s/%v vs %s/%v", a, err1, b, err2)
	}
}
