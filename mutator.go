package timetable

import (
	"context"
	"sort"
	"strconv"

	"github.com/theoremus-urban-solutions/gtfs-timetable/store"
)

// Field selects which time of a stop visit SetTime edits. FieldLinked sets
// arrival and departure to the same value.
type Field string

const (
	FieldArrival   Field = "arrival"
	FieldDeparture Field = "departure"
	FieldLinked    Field = "linked"
)

// SnapshotEntry is one desired stop visit in a RebuildFromSnapshot call.
// Empty time strings mean "unset".
type SnapshotEntry struct {
	StopID    string `json:"stopId"`
	Arrival   string `json:"arrival"`
	Departure string `json:"departure"`
}

// Mutator applies edits to one trip's stop_time rows while keeping the
// trip Consistent: stop_sequence values exactly 1..N, ordered by effective
// time. In-place time edits go through a single keyed update; anything
// that can move a row in time order goes through an atomic replace of the
// whole trip, since an insertion can land anywhere and the sequence must
// stay contiguous.
//
// The read before a replace is not isolated from a concurrent edit to the
// same trip; last replace wins. Each individual replace still moves the
// trip from one Consistent state to another.
type Mutator struct {
	store store.Store
}

func NewMutator(st store.Store) *Mutator {
	return &Mutator{store: st}
}

// SetTime sets, changes or clears (value == nil) one time field of the
// (tripID, stopID) visit. A visit that does not exist yet is inserted with
// only the specified field set, and the whole trip is resequenced around
// it. Validation happens before any write.
func (m *Mutator) SetTime(ctx context.Context, tripID, stopID string, value *string, field Field) error {
	switch field {
	case FieldArrival, FieldDeparture, FieldLinked:
	default:
		return &ValidationError{Rule: "field", Msg: "unknown field " + strconv.Quote(string(field))}
	}

	normalized := ""
	if value != nil {
		var err error
		normalized, err = NormalizeTime(*value)
		if err != nil {
			return err
		}
	}

	recs, keys, err := tripStopTimes(ctx, m.store, tripID)
	if err != nil {
		return err
	}

	for i, rec := range recs {
		if rec.StopID != stopID {
			continue
		}
		if err := checkOrdering(rec, field, value, normalized); err != nil {
			return err
		}
		fields := store.Row{}
		if field == FieldArrival || field == FieldLinked {
			fields["arrival_time"] = normalized
		}
		if field == FieldDeparture || field == FieldLinked {
			fields["departure_time"] = normalized
		}
		if err := m.store.UpdateRow(ctx, store.TableStopTimes, keys[i], fields); err != nil {
			return &StorageError{Op: "update stop_times", Err: err}
		}
		return nil
	}

	// No row yet: merge a candidate carrying only the edited field(s) into
	// the trip and rewrite the whole row set in time order.
	candidate := StopTimeRecord{TripID: tripID, StopID: stopID}
	if field == FieldArrival || field == FieldLinked {
		candidate.Arrival = normalized
	}
	if field == FieldDeparture || field == FieldLinked {
		candidate.Departure = normalized
	}
	return m.replaceTrip(ctx, keys, append(recs, candidate))
}

// Skip clears both times of the visit but keeps the row, so "this trip
// does not stop here" stays distinguishable from "never scheduled here"
// and the other rows keep their sequence slots.
func (m *Mutator) Skip(ctx context.Context, tripID, stopID string) error {
	return m.SetTime(ctx, tripID, stopID, nil, FieldLinked)
}

// RebuildFromSnapshot replaces the trip's entire row set with entries;
// stops absent from entries are removed. All entries are validated before
// any write.
func (m *Mutator) RebuildFromSnapshot(ctx context.Context, tripID string, entries []SnapshotEntry) error {
	recs := make([]StopTimeRecord, len(entries))
	for i, entry := range entries {
		if entry.StopID == "" {
			return &ValidationError{Rule: "stop-id", Msg: "snapshot entry " + strconv.Itoa(i) + " has no stop id"}
		}
		rec := StopTimeRecord{TripID: tripID, StopID: entry.StopID}
		var err error
		if entry.Arrival != "" {
			if rec.Arrival, err = NormalizeTime(entry.Arrival); err != nil {
				return err
			}
		}
		if entry.Departure != "" {
			if rec.Departure, err = NormalizeTime(entry.Departure); err != nil {
				return err
			}
		}
		if rec.Arrival != "" && rec.Departure != "" && timeSeconds(rec.Arrival) > timeSeconds(rec.Departure) {
			return &ValidationError{
				Rule: "arrival<=departure",
				Msg:  "stop " + entry.StopID + ": arrival " + rec.Arrival + " is after departure " + rec.Departure,
			}
		}
		recs[i] = rec
	}

	_, keys, err := tripStopTimes(ctx, m.store, tripID)
	if err != nil {
		return err
	}
	return m.replaceTrip(ctx, keys, recs)
}

// replaceTrip sorts recs by effective time, assigns contiguous sequence
// numbers and swaps them in for the rows behind oldKeys in one atomic call.
func (m *Mutator) replaceTrip(ctx context.Context, oldKeys []string, recs []StopTimeRecord) error {
	sortByEffectiveTime(recs)
	rows := make([]store.Row, len(recs))
	for i := range recs {
		recs[i].StopSequence = i + 1
		rows[i] = stopTimeToRow(recs[i])
	}
	if err := m.store.ReplaceRows(ctx, store.TableStopTimes, oldKeys, rows); err != nil {
		return &StorageError{Op: "replace stop_times", Err: err}
	}
	return nil
}

// checkOrdering rejects an edit that would leave arrival after departure
// within the row, judged against the sibling field as currently stored.
// Linked edits set both fields to one value and cannot violate it; clears
// cannot either.
func checkOrdering(rec StopTimeRecord, field Field, value *string, normalized string) error {
	if value == nil || field == FieldLinked {
		return nil
	}
	switch field {
	case FieldArrival:
		if rec.Departure != "" && timeSeconds(normalized) > timeSeconds(rec.Departure) {
			return &ValidationError{
				Rule: "arrival<=departure",
				Msg:  "arrival " + normalized + " is after stored departure " + rec.Departure,
			}
		}
	case FieldDeparture:
		if rec.Arrival != "" && timeSeconds(normalized) < timeSeconds(rec.Arrival) {
			return &ValidationError{
				Rule: "arrival<=departure",
				Msg:  "departure " + normalized + " is before stored arrival " + rec.Arrival,
			}
		}
	}
	return nil
}

// sortByEffectiveTime orders rows by departure (else arrival) ascending;
// rows with neither time go last, keeping their relative order.
func sortByEffectiveTime(recs []StopTimeRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, aok := effectiveSeconds(recs[i])
		b, bok := effectiveSeconds(recs[j])
		if aok != bok {
			return aok
		}
		return aok && a < b
	})
}
