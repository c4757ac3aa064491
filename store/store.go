package store

import (
	"context"
	"fmt"
	"strings"
)

// Row is one persisted record as GTFS column name -> value. Columns absent
// from an UpdateRow fields map stay untouched; an empty value clears the
// column.
type Row map[string]string

// GTFS table names this store serves.
const (
	TableRoutes    = "routes"
	TableTrips     = "trips"
	TableStops     = "stops"
	TableStopTimes = "stop_times"
	TableCalendar  = "calendar"
)

// Store is the narrow persistence surface the timetable engine mutates
// through. ReplaceRows must be atomic: either every old key is deleted and
// every new row inserted, or nothing changes.
type Store interface {
	// QueryRows returns all rows of table matching every column of filter
	// exactly. Order is unspecified.
	QueryRows(ctx context.Context, table string, filter Row) ([]Row, error)

	// UpdateRow merges fields into the row identified by key.
	UpdateRow(ctx context.Context, table string, key string, fields Row) error

	// ReplaceRows deletes the rows identified by oldKeys and inserts rows,
	// all-or-nothing.
	ReplaceRows(ctx context.Context, table string, oldKeys []string, rows []Row) error

	// GenerateKey derives the natural key of a row from the table's
	// GTFS-defined primary-key columns. Callers treat the key as opaque.
	GenerateKey(table string, row Row) (string, error)
}

// keySeparator joins primary-key values. 0x1f never occurs in GTFS ids.
const keySeparator = "\x1f"

var primaryKeys = map[string][]string{
	TableRoutes:    {"route_id"},
	TableTrips:     {"trip_id"},
	TableStops:     {"stop_id"},
	TableStopTimes: {"trip_id", "stop_sequence"},
	TableCalendar:  {"service_id"},
}

// NaturalKey builds the composite key of row per the table's GTFS primary
// key. Both store implementations use it so keys stay interchangeable.
func NaturalKey(table string, row Row) (string, error) {
	cols, ok := primaryKeys[table]
	if !ok {
		return "", fmt.Errorf("unknown table %q", table)
	}
	parts := make([]string, len(cols))
	for i, col := range cols {
		v, ok := row[col]
		if !ok || v == "" {
			return "", fmt.Errorf("table %s: row missing primary key column %s", table, col)
		}
		parts[i] = v
	}
	return strings.Join(parts, keySeparator), nil
}

// splitKey is the inverse of NaturalKey for implementations that need the
// individual primary-key values back.
func splitKey(table, key string) ([]string, error) {
	cols, ok := primaryKeys[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	parts := strings.Split(key, keySeparator)
	if len(parts) != len(cols) {
		return nil, fmt.Errorf("table %s: malformed key %q", table, key)
	}
	return parts, nil
}

func matches(row, filter Row) bool {
	for col, want := range filter {
		if row[col] != want {
			return false
		}
	}
	return true
}
