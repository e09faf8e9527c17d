// Package repository defines the persistence layer for quotas, applications
// and users, together with the sentinel errors shared across stores.  The
// sentinels let higher layers distinguish failure scenarios with errors.Is:
// a full bucket (ErrCapacityExceeded) must surface to the admissions UI as
// "no seats available", while an illegal lifecycle edge
// (ErrInvalidTransition) blocks the action entirely.
package repository

import "errors"

// ErrQuotaNotFound is returned when no quota bucket matches the requested
// key or id. Handlers should translate this into an HTTP 404 response.
var ErrQuotaNotFound = errors.New("quota not found")

// ErrApplicationNotFound is returned when an application id does not exist.
var ErrApplicationNotFound = errors.New("application not found")

// ErrCapacityExceeded is returned when occupying a seat would push a
// bucket's occupancy above its configured capacity.  The occupancy counter
// is left untouched.  This is a user-visible outcome ("someone already took
// the last seat"), not an internal fault.
var ErrCapacityExceeded = errors.New("quota capacity exceeded")

// ErrNegativeOccupancy is returned when releasing a seat would drive a
// bucket's occupancy below zero.  Under the seat-holding invariant this
// should never happen; callers treat it as a consistency failure.
var ErrNegativeOccupancy = errors.New("quota occupancy below zero")

// ErrCapacityBelowOccupancy is returned when an administrative capacity
// edit would set total capacity below the seats already occupied.
var ErrCapacityBelowOccupancy = errors.New("capacity below current occupancy")

// ErrNoMatchingQuota is returned by the resolver when no bucket exists for
// a selection.  It indicates missing configuration, not a full bucket.
var ErrNoMatchingQuota = errors.New("no matching quota")

// ErrAmbiguousParallel is returned when an allocation is attempted for a
// selection whose parallel has not been assigned yet.  Admission decisions
// must fix a concrete parallel before a seat can be taken.
var ErrAmbiguousParallel = errors.New("parallel not assigned")

// ErrInvalidTransition is returned when a requested status change is not a
// legal edge from the application's current state.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConsistencyFatal wraps a failure that the seat-holding invariant
// guarantees cannot happen, such as a release on an empty bucket.  It
// signals store corruption or a concurrency bug and must be logged loudly.
var ErrConsistencyFatal = errors.New("quota consistency violation")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a quota bucket that still
// has occupied seats. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering a user with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")
