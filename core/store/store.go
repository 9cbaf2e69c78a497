// Package store defines the contract for the shared observable state store
// that patient, doctor and driver actors coordinate through. Records are
// addressed by slash-separated paths ("alerts/p1", "responders/d1") and hold
// loosely-typed documents. The store guarantees last-write-wins per path and
// nothing across paths; multi-record consistency is the caller's problem.
package store

import "context"

// Snapshot is the value observed at a path at one point in time.
type Snapshot struct {
	Value  any
	Exists bool
}

// MutateFunc transforms the current value at a path into the next one.
// Returning an error aborts the mutation and leaves the record untouched.
// Returning a nil value removes the record.
type MutateFunc func(current any, exists bool) (any, error)

// Store is the role-agnostic abstraction over the real-time database.
type Store interface {
	// Get returns the value at path, reporting absence without error.
	Get(ctx context.Context, path string) (any, bool, error)
	// Set overwrites the value at path.
	Set(ctx context.Context, path string, value any) error
	// Update merge-patches the given fields into the document at path,
	// creating it when absent.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Remove deletes the record at path. Removing an absent record is a no-op.
	Remove(ctx context.Context, path string) error
	// Append inserts value under path with a generated, lexically ordered
	// child key and returns that key. Used for chat and notification feeds.
	Append(ctx context.Context, path string, value any) (string, error)
	// Mutate applies fn to the value at path as one read-modify-write step.
	// This is the per-record transaction every write-side validation relies
	// on; it gives no atomicity across paths.
	Mutate(ctx context.Context, path string, fn MutateFunc) error
	// Observe emits the current value at path immediately, then again on
	// every change at or below the path, until ctx is canceled. The stream
	// is restartable: a new call yields a fresh subscription.
	Observe(ctx context.Context, path string) (<-chan Snapshot, error)
}
