package timetable

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/theoremus-urban-solutions/gtfs-timetable/store"
)

// newTestStore seeds a small two-branch route: trip A serves S1,S2,S4 and
// trip B serves S1,S3,S4.
func newTestStore() *store.Memory {
	m := store.NewMemory()
	m.Seed(store.TableRoutes,
		store.Row{"route_id": "R1", "route_short_name": "10", "route_long_name": "Harbor Line"},
	)
	m.Seed(store.TableCalendar,
		store.Row{
			"service_id": "WKD", "monday": "1", "tuesday": "1", "wednesday": "1",
			"thursday": "1", "friday": "1", "saturday": "0", "sunday": "0",
			"start_date": "20260101", "end_date": "20261231",
		},
	)
	m.Seed(store.TableStops,
		store.Row{"stop_id": "S1", "stop_name": "Alpha", "stop_lat": "42.69", "stop_lon": "23.32"},
		store.Row{"stop_id": "S2", "stop_name": "Bravo", "stop_lat": "42.70", "stop_lon": "23.33"},
		store.Row{"stop_id": "S3", "stop_name": "Charlie", "stop_lat": "42.71", "stop_lon": "23.34"},
		store.Row{"stop_id": "S4", "stop_name": "Delta", "stop_lat": "42.72", "stop_lon": "23.35"},
	)
	m.Seed(store.TableTrips,
		store.Row{"trip_id": "A", "route_id": "R1", "service_id": "WKD", "direction_id": "0", "trip_headsign": "Delta"},
		store.Row{"trip_id": "B", "route_id": "R1", "service_id": "WKD", "direction_id": "0", "trip_headsign": "Delta"},
	)
	m.Seed(store.TableStopTimes,
		store.Row{"trip_id": "A", "stop_id": "S1", "stop_sequence": "1", "arrival_time": "08:00:00", "departure_time": "08:00:00"},
		store.Row{"trip_id": "A", "stop_id": "S2", "stop_sequence": "2", "arrival_time": "08:05:00", "departure_time": "08:05:00"},
		store.Row{"trip_id": "A", "stop_id": "S4", "stop_sequence": "3", "arrival_time": "08:15:00", "departure_time": "08:15:00"},
		store.Row{"trip_id": "B", "stop_id": "S1", "stop_sequence": "1", "arrival_time": "09:00:00", "departure_time": "09:00:00"},
		store.Row{"trip_id": "B", "stop_id": "S3", "stop_sequence": "2", "arrival_time": "09:07:00", "departure_time": "09:07:00"},
		store.Row{"trip_id": "B", "stop_id": "S4", "stop_sequence": "3", "arrival_time": "09:15:00", "departure_time": "09:15:00"},
	)
	return m
}

func newTestBuilder(m *store.Memory) *Builder {
	return NewBuilder(NewRepository(m))
}

func TestBuild_UnknownRoute(t *testing.T) {
	b := newTestBuilder(newTestStore())
	_, err := b.Build(context.Background(), "NOPE", "WKD", "")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestBuild_NoTripsForService(t *testing.T) {
	b := newTestBuilder(newTestStore())
	_, err := b.Build(context.Background(), "R1", "SUNDAYS", "")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestBuild_NoTripsForDirection(t *testing.T) {
	b := newTestBuilder(newTestStore())
	_, err := b.Build(context.Background(), "R1", "WKD", "1")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestBuild_AlignsBranchedTrips(t *testing.T) {
	b := newTestBuilder(newTestStore())
	data, err := b.Build(context.Background(), "R1", "WKD", "")
	if err != nil {
		t.Fatal(err)
	}

	var stopIDs []string
	for _, stop := range data.Stops {
		stopIDs = append(stopIDs, stop.ID)
	}
	if diff := cmp.Diff([]string{"S1", "S2", "S3", "S4"}, stopIDs); diff != "" {
		t.Fatalf("stop order mismatch (-want +got):\n%s", diff)
	}

	// Columns ordered by first effective time: A (08:00) before B (09:00).
	if data.Trips[0].TripID != "A" || data.Trips[1].TripID != "B" {
		t.Fatalf("unexpected column order: %s, %s", data.Trips[0].TripID, data.Trips[1].TripID)
	}

	a, bTrip := data.Trips[0], data.Trips[1]
	if _, ok := a.Arrivals[2]; ok {
		t.Error("trip A must have no time at S3's row")
	}
	if _, ok := bTrip.Arrivals[1]; ok {
		t.Error("trip B must have no time at S2's row")
	}
	if a.Arrivals[1] != "08:05:00" {
		t.Errorf("trip A at S2 row: got %q", a.Arrivals[1])
	}
	if bTrip.Arrivals[2] != "09:07:00" {
		t.Errorf("trip B at S3 row: got %q", bTrip.Arrivals[2])
	}
	if a.Headsign != "Delta" {
		t.Errorf("headsign lost: %q", a.Headsign)
	}
}

func TestBuild_SplitColumnsFlag(t *testing.T) {
	m := newTestStore()
	b := newTestBuilder(m)
	data, err := b.Build(context.Background(), "R1", "WKD", "")
	if err != nil {
		t.Fatal(err)
	}
	if data.ShowSplitColumns {
		t.Error("equal arrival/departure everywhere must not split columns")
	}

	// A dwell at S2 makes arrival and departure diverge.
	key, _ := m.GenerateKey(store.TableStopTimes, store.Row{"trip_id": "A", "stop_sequence": "2"})
	if err := m.UpdateRow(context.Background(), store.TableStopTimes, key, store.Row{"departure_time": "08:06:00"}); err != nil {
		t.Fatal(err)
	}
	data, err = b.Build(context.Background(), "R1", "WKD", "")
	if err != nil {
		t.Fatal(err)
	}
	if !data.ShowSplitColumns {
		t.Error("unequal arrival/departure must split columns")
	}
}

func TestBuild_DirectionMetadata(t *testing.T) {
	m := newTestStore()
	m.Seed(store.TableTrips,
		store.Row{"trip_id": "C", "route_id": "R1", "service_id": "WKD", "direction_id": "1", "trip_headsign": "Alpha"},
	)
	m.Seed(store.TableStopTimes,
		store.Row{"trip_id": "C", "stop_id": "S4", "stop_sequence": "1", "arrival_time": "10:00:00", "departure_time": "10:00:00"},
		store.Row{"trip_id": "C", "stop_id": "S1", "stop_sequence": "2", "arrival_time": "10:15:00", "departure_time": "10:15:00"},
	)
	b := newTestBuilder(m)

	data, err := b.Build(context.Background(), "R1", "WKD", "1")
	if err != nil {
		t.Fatal(err)
	}
	want := []DirectionInfo{
		{ID: "0", Label: "Outbound", TripCount: 2, Selected: false},
		{ID: "1", Label: "Inbound", TripCount: 1, Selected: true},
	}
	if diff := cmp.Diff(want, data.Directions); diff != "" {
		t.Errorf("directions mismatch (-want +got):\n%s", diff)
	}
	if len(data.Trips) != 1 || data.Trips[0].TripID != "C" {
		t.Errorf("direction filter leaked trips: %+v", data.Trips)
	}

	// No direction requested: metadata still covers both, first is default.
	data, err = b.Build(context.Background(), "R1", "WKD", "")
	if err != nil {
		t.Fatal(err)
	}
	if !data.Directions[0].Selected || data.Directions[1].Selected {
		t.Errorf("default selection must be the first direction: %+v", data.Directions)
	}
	if len(data.Trips) != 3 {
		t.Errorf("unfiltered build must include all trips, got %d", len(data.Trips))
	}
}

func TestBuild_DirectionLabelFallback(t *testing.T) {
	if got := directionLabel("2"); got != "Direction 2" {
		t.Errorf("got %q", got)
	}
}

func TestBuild_MissingStopFailsHard(t *testing.T) {
	m := newTestStore()
	m.Seed(store.TableStopTimes,
		store.Row{"trip_id": "A", "stop_id": "GHOST", "stop_sequence": "4", "arrival_time": "08:20:00", "departure_time": "08:20:00"},
	)
	b := newTestBuilder(m)
	_, err := b.Build(context.Background(), "R1", "WKD", "")
	var di *DataIntegrityError
	if !errors.As(err, &di) {
		t.Fatalf("expected DataIntegrityError, got %v", err)
	}
}

func TestBuild_RebuiltPerCall(t *testing.T) {
	m := newTestStore()
	b := newTestBuilder(m)
	ctx := context.Background()

	before, err := b.Build(ctx, "R1", "WKD", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := NewMutator(m).Skip(ctx, "A", "S2"); err != nil {
		t.Fatal(err)
	}
	after, err := b.Build(ctx, "R1", "WKD", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := before.Trips[0].Arrivals[1]; !ok {
		t.Error("pre-mutation value must keep its time")
	}
	if _, ok := after.Trips[0].Arrivals[1]; ok {
		t.Error("build after skip must reflect the cleared time")
	}
}
