package store

import "errors"

// ErrUnavailable marks a store that is unreachable or timed out. Dispatch
// operations fail closed on it and are safe to retry.
var ErrUnavailable = errors.New("state store unavailable")
