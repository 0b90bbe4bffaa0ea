package models

import "errors"

// ErrNotFound is returned by repositories when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// ErrNoReversalMatch is returned when no audit record satisfies a reversal
// advice's original data elements. The relay answers these synchronously with
// a decline instead of queuing.
var ErrNoReversalMatch = errors.New("no matching original message for reversal advice")
