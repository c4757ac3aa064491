package timetable

// Canonical value types for the entities this engine works with. GTFS
// column-name mapping (snake_case) happens only at the storage boundary in
// repository.go; everything above it uses these types.

// Route corresponds to one row of the routes table.
type Route struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
}

// Trip is one scheduled vehicle run.
type Trip struct {
	ID          string `json:"id"`
	RouteID     string `json:"routeId"`
	ServiceID   string `json:"serviceId"`
	DirectionID string `json:"directionId"`
	Headsign    string `json:"headsign"`
}

// Stop is one row of the stops table.
type Stop struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Calendar describes the service days of one service_id.
type Calendar struct {
	ServiceID string  `json:"serviceId"`
	Weekdays  [7]bool `json:"weekdays"` // Monday first
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
}

// StopTimeRecord is the persisted stop visit of a trip. Arrival and
// Departure hold normalized GTFS time strings; empty means the field is
// unset (the trip does not stop, or the time was cleared).
type StopTimeRecord struct {
	TripID       string `json:"tripId"`
	StopID       string `json:"stopId"`
	StopSequence int    `json:"stopSequence"`
	Arrival      string `json:"arrival"`
	Departure    string `json:"departure"`
}

// AlignedTrip is one timetable column: sparse times keyed by supersequence
// row. A row absent from both maps is either skipped by this trip or was
// never scheduled here.
type AlignedTrip struct {
	TripID     string         `json:"tripId"`
	Headsign   string         `json:"headsign"`
	Arrivals   map[int]string `json:"arrivals"`
	Departures map[int]string `json:"departures"`
}

// DirectionInfo describes one direction group of the trip set.
type DirectionInfo struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	TripCount int    `json:"tripCount"`
	Selected  bool   `json:"selected"`
}

// TimetableData is the renderable result of one Build call. It is a plain
// value: rebuilt on every call, never cached, safe to serialize as-is.
type TimetableData struct {
	Route            Route           `json:"route"`
	Service          Calendar        `json:"service"`
	Stops            []Stop          `json:"stops"`
	Trips            []AlignedTrip   `json:"trips"`
	Directions       []DirectionInfo `json:"directions"`
	ShowSplitColumns bool            `json:"showSplitColumns"`
}
