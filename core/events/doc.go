// Package events defines the dispatch related events emitted on the event bus.
//
// Available event types:
//   - AlertRaisedEvent: a new SOS alert was created
//   - AssignEvent: a responder was paired with an alert
//   - StageEvent: a mission advanced to a new stage
//   - ResolveEvent: an alert was resolved and removed
//   - CancelEvent: an assignment was rolled back to ACTIVE
//   - OrphanReleasedEvent: self-heal released a dangling BUSY responder
package events
