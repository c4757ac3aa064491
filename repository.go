package timetable

import (
	"context"
	"sort"
	"strconv"

	"github.com/theoremus-urban-solutions/gtfs-timetable/store"
)

// Relationships is the read side the builder consumes: entity lookups over
// the persisted GTFS tables. StopByID and CalendarForService return nil
// when the id is unknown; only storage failures surface as errors.
// StopTimesForTrip returns rows sorted by stop_sequence.
type Relationships interface {
	RouteByID(ctx context.Context, routeID string) (*Route, error)
	TripsForRoute(ctx context.Context, routeID string) ([]Trip, error)
	StopTimesForTrip(ctx context.Context, tripID string) ([]StopTimeRecord, error)
	StopByID(ctx context.Context, stopID string) (*Stop, error)
	CalendarForService(ctx context.Context, serviceID string) (*Calendar, error)
}

// Repository implements Relationships over a store.Store. This file is the
// only place GTFS column names are spelled out; aligner, builder and
// mutator see canonical value types exclusively.
type Repository struct {
	store store.Store
}

func NewRepository(st store.Store) *Repository {
	return &Repository{store: st}
}

func (r *Repository) RouteByID(ctx context.Context, routeID string) (*Route, error) {
	rows, err := r.store.QueryRows(ctx, store.TableRoutes, store.Row{"route_id": routeID})
	if err != nil {
		return nil, &StorageError{Op: "query routes", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	return &Route{
		ID:        row["route_id"],
		ShortName: row["route_short_name"],
		LongName:  row["route_long_name"],
	}, nil
}

func (r *Repository) TripsForRoute(ctx context.Context, routeID string) ([]Trip, error) {
	rows, err := r.store.QueryRows(ctx, store.TableTrips, store.Row{"route_id": routeID})
	if err != nil {
		return nil, &StorageError{Op: "query trips", Err: err}
	}
	trips := make([]Trip, 0, len(rows))
	for _, row := range rows {
		trips = append(trips, Trip{
			ID:          row["trip_id"],
			RouteID:     row["route_id"],
			ServiceID:   row["service_id"],
			DirectionID: row["direction_id"],
			Headsign:    row["trip_headsign"],
		})
	}
	return trips, nil
}

func (r *Repository) StopTimesForTrip(ctx context.Context, tripID string) ([]StopTimeRecord, error) {
	recs, _, err := tripStopTimes(ctx, r.store, tripID)
	return recs, err
}

func (r *Repository) StopByID(ctx context.Context, stopID string) (*Stop, error) {
	rows, err := r.store.QueryRows(ctx, store.TableStops, store.Row{"stop_id": stopID})
	if err != nil {
		return nil, &StorageError{Op: "query stops", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	lat, _ := strconv.ParseFloat(row["stop_lat"], 64)
	lon, _ := strconv.ParseFloat(row["stop_lon"], 64)
	return &Stop{ID: row["stop_id"], Name: row["stop_name"], Lat: lat, Lon: lon}, nil
}

func (r *Repository) CalendarForService(ctx context.Context, serviceID string) (*Calendar, error) {
	rows, err := r.store.QueryRows(ctx, store.TableCalendar, store.Row{"service_id": serviceID})
	if err != nil {
		return nil, &StorageError{Op: "query calendar", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	cal := &Calendar{
		ServiceID: row["service_id"],
		StartDate: row["start_date"],
		EndDate:   row["end_date"],
	}
	days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	for i, day := range days {
		cal.Weekdays[i] = row[day] == "1"
	}
	return cal, nil
}

// tripStopTimes loads one trip's stop_time rows with their storage keys,
// positionally aligned and sorted by stop_sequence. Storage returns rows
// unordered, so this is where the trip's visiting order is established.
func tripStopTimes(ctx context.Context, st store.Store, tripID string) ([]StopTimeRecord, []string, error) {
	rows, err := st.QueryRows(ctx, store.TableStopTimes, store.Row{"trip_id": tripID})
	if err != nil {
		return nil, nil, &StorageError{Op: "query stop_times", Err: err}
	}
	recs := make([]StopTimeRecord, 0, len(rows))
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		key, err := st.GenerateKey(store.TableStopTimes, row)
		if err != nil {
			return nil, nil, &StorageError{Op: "key stop_times", Err: err}
		}
		recs = append(recs, rowToStopTime(row))
		keys = append(keys, key)
	}
	order := make([]int, len(recs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return recs[order[a]].StopSequence < recs[order[b]].StopSequence
	})
	sortedRecs := make([]StopTimeRecord, len(recs))
	sortedKeys := make([]string, len(keys))
	for i, idx := range order {
		sortedRecs[i] = recs[idx]
		sortedKeys[i] = keys[idx]
	}
	return sortedRecs, sortedKeys, nil
}

func rowToStopTime(row store.Row) StopTimeRecord {
	seq, _ := strconv.Atoi(row["stop_sequence"])
	return StopTimeRecord{
		TripID:       row["trip_id"],
		StopID:       row["stop_id"],
		StopSequence: seq,
		Arrival:      row["arrival_time"],
		Departure:    row["departure_time"],
	}
}

func stopTimeToRow(rec StopTimeRecord) store.Row {
	return store.Row{
		"trip_id":        rec.TripID,
		"stop_id":        rec.StopID,
		"stop_sequence":  strconv.Itoa(rec.StopSequence),
		"arrival_time":   rec.Arrival,
		"departure_time": rec.Departure,
	}
}
