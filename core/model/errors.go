package model

import "errors"

// Dispatch error taxonomy. All state-changing operations surface one of
// these (or store.ErrUnavailable) to the initiating actor; none is retried
// silently.
var (
	// ErrInvalidTransition marks a status change the transition table forbids.
	// State is left untouched.
	ErrInvalidTransition = errors.New("invalid mission transition")
	// ErrResponderUnavailable marks an assignment attempt against a unit that
	// is BUSY or OFFLINE at write time. The operator re-fetches the available
	// pool before retrying; there is no implicit queueing.
	ErrResponderUnavailable = errors.New("responder unavailable")
	// ErrAlertGone marks an operation against an alert that no longer exists.
	// Any responder claimed on its behalf is released by compensation.
	ErrAlertGone = errors.New("alert no longer exists")
)
