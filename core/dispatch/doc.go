// Package dispatch implements the emergency mission state machine: pairing
// an SOS alert with an idle responder, advancing the mission through arrival
// and completion, and reconciling the two records across actors that only
// share an observable store.
//
// The coordinator has no dedicated execution thread. Its invariants are
// enforced by write-side validation: every mutating operation re-validates
// its preconditions inside per-record conditional writes immediately before
// committing, and compensates when a cross-record race is detected after the
// fact. See Next for the transition table.
package dispatch
