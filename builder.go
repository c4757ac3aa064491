package timetable

import (
	"context"
	"sort"

	"github.com/theoremus-urban-solutions/gtfs-timetable/align"
)

// Builder assembles a renderable TimetableData for one (route, service,
// direction) view. Every call rebuilds from storage; nothing is cached
// between renders, so a Build after any mutation always reflects it.
type Builder struct {
	rel Relationships
}

func NewBuilder(rel Relationships) *Builder {
	return &Builder{rel: rel}
}

// Build resolves the trip set, aligns all stop sequences into one shared
// ordering and folds each trip's times onto it. directionID may be empty
// for "no direction filter". The returned value is complete or nil: no
// partial timetable is ever handed out.
func (b *Builder) Build(ctx context.Context, routeID, serviceID, directionID string) (*TimetableData, error) {
	route, err := b.rel.RouteByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, &NotFoundError{Msg: "unknown route " + routeID}
	}

	allTrips, err := b.rel.TripsForRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	serviceTrips := make([]Trip, 0, len(allTrips))
	for _, trip := range allTrips {
		if trip.ServiceID == serviceID {
			serviceTrips = append(serviceTrips, trip)
		}
	}
	if len(serviceTrips) == 0 {
		return nil, &NotFoundError{Msg: "no trips for route " + routeID + " and service " + serviceID}
	}

	service, err := b.rel.CalendarForService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, &NotFoundError{Msg: "unknown service " + serviceID}
	}

	// Direction metadata comes from the whole service trip set, before the
	// direction filter narrows it down.
	directions := directionInfo(serviceTrips, directionID)

	trips := serviceTrips
	if directionID != "" {
		trips = trips[:0:0]
		for _, trip := range serviceTrips {
			if normalizeDirection(trip.DirectionID) == directionID {
				trips = append(trips, trip)
			}
		}
		if len(trips) == 0 {
			return nil, &NotFoundError{Msg: "no trips for direction " + directionID}
		}
	}

	columns := make([]tripColumn, 0, len(trips))
	for _, trip := range trips {
		// Already sorted by stop_sequence: the trip's own visiting order.
		recs, err := b.rel.StopTimesForTrip(ctx, trip.ID)
		if err != nil {
			return nil, err
		}
		columns = append(columns, tripColumn{trip: trip, records: recs})
	}
	// Deterministic column order: first effective time, then trip id.
	sort.SliceStable(columns, func(i, j int) bool {
		a, aok := columns[i].firstEffective()
		b, bok := columns[j].firstEffective()
		if aok != bok {
			return aok
		}
		if aok && a != b {
			return a < b
		}
		return columns[i].trip.ID < columns[j].trip.ID
	})

	sequences := make([][]string, len(columns))
	for i, col := range columns {
		seq := make([]string, len(col.records))
		for j, rec := range col.records {
			seq[j] = rec.StopID
		}
		sequences[i] = seq
	}
	merged := align.Merge(sequences)

	stops, err := b.resolveStops(ctx, merged.Supersequence)
	if err != nil {
		return nil, err
	}

	aligned := make([]AlignedTrip, len(columns))
	showSplit := false
	for i, col := range columns {
		at := AlignedTrip{
			TripID:     col.trip.ID,
			Headsign:   col.trip.Headsign,
			Arrivals:   map[int]string{},
			Departures: map[int]string{},
		}
		for j, rec := range col.records {
			pos := merged.Mappings[i][j]
			if rec.Arrival != "" {
				at.Arrivals[pos] = rec.Arrival
			}
			if rec.Departure != "" {
				at.Departures[pos] = rec.Departure
			}
			if rec.Arrival != "" && rec.Departure != "" && rec.Arrival != rec.Departure {
				showSplit = true
			}
		}
		aligned[i] = at
	}

	return &TimetableData{
		Route:            *route,
		Service:          *service,
		Stops:            stops,
		Trips:            aligned,
		Directions:       directions,
		ShowSplitColumns: showSplit,
	}, nil
}

func (b *Builder) resolveStops(ctx context.Context, ids []string) ([]Stop, error) {
	stops := make([]Stop, len(ids))
	seen := map[string]*Stop{}
	for i, id := range ids {
		if cached, ok := seen[id]; ok {
			stops[i] = *cached
			continue
		}
		stop, err := b.rel.StopByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if stop == nil {
			return nil, &DataIntegrityError{Msg: "stop_time references unknown stop " + id}
		}
		seen[id] = stop
		stops[i] = *stop
	}
	return stops, nil
}

type tripColumn struct {
	trip    Trip
	records []StopTimeRecord
}

func (c tripColumn) firstEffective() (int, bool) {
	for _, rec := range c.records {
		if sec, ok := effectiveSeconds(rec); ok {
			return sec, true
		}
	}
	return 0, false
}

// A trip without a direction_id belongs to direction "0" per the GTFS
// default.
func normalizeDirection(id string) string {
	if id == "" {
		return "0"
	}
	return id
}

func directionLabel(id string) string {
	switch id {
	case "0":
		return "Outbound"
	case "1":
		return "Inbound"
	default:
		return "Direction " + id
	}
}

func directionInfo(trips []Trip, requested string) []DirectionInfo {
	counts := map[string]int{}
	var order []string
	for _, trip := range trips {
		id := normalizeDirection(trip.DirectionID)
		if _, ok := counts[id]; !ok {
			order = append(order, id)
		}
		counts[id]++
	}
	sort.Strings(order)

	selected := requested
	if _, ok := counts[selected]; !ok {
		selected = order[0]
	}

	infos := make([]DirectionInfo, len(order))
	for i, id := range order {
		infos[i] = DirectionInfo{
			ID:        id,
			Label:     directionLabel(id),
			TripCount: counts[id],
			Selected:  id == selected,
		}
	}
	return infos
}
