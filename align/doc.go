// Package align computes a shared stop ordering for a set of trips.
//
// Given the ordered stop-id list of every trip serving a route, Merge
// produces one supersequence usable as the row axis of a paper-style
// timetable, plus a per-trip mapping from the trip's own visiting order
// into supersequence rows. The package is pure: it never touches storage
// and is safe to call from any goroutine.
package align
