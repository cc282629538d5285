package store

import "errors"

// ErrNotFound indicates a requested profile or subprofile does not exist.
// Removal never reports it: re-removing is an idempotent no-op.
var ErrNotFound = errors.New("store: not found")
