package timetable

import "fmt"

// NotFoundError reports a lookup that yielded nothing where a result was
// required (unknown route, unknown service, empty trip filter).
type NotFoundError struct{ Msg string }

func (e *NotFoundError) Error() string { return e.Msg }

// DataIntegrityError reports a stop_time referencing a stop id that is
// absent from the stops table. Builds fail hard on it; rows are never
// silently dropped.
type DataIntegrityError struct{ Msg string }

func (e *DataIntegrityError) Error() string { return e.Msg }

// ValidationError reports a malformed time string or an ordering violation.
// Rule names the violated rule; no write has happened when it is returned.
type ValidationError struct {
	Rule string
	Msg  string
}

func (e *ValidationError) Error() string { return e.Rule + ": " + e.Msg }

// StorageError wraps a failure surfaced by the storage collaborator. It is
// propagated unchanged apart from this wrapper; there is no retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }
