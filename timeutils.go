package timetable

import (
	"regexp"
	"strconv"
	"strings"
)

// GTFS time grammar: H:MM:SS or HH:MM:SS, 24-hour clock, hour unbounded
// above 23 for post-midnight service.
var gtfsTimeRe = regexp.MustCompile(`^\d{1,3}:[0-5]\d:[0-5]\d$`)

// NormalizeTime validates a GTFS time string and zero-pads the hour to at
// least two digits, the form every comparison and persisted value uses.
func NormalizeTime(value string) (string, error) {
	s := strings.TrimSpace(value)
	if !gtfsTimeRe.MatchString(s) {
		return "", &ValidationError{
			Rule: "time-grammar",
			Msg:  "time must be H:MM:SS or HH:MM:SS, got " + strconv.Quote(value),
		}
	}
	if strings.IndexByte(s, ':') == 1 {
		s = "0" + s
	}
	return s, nil
}

// timeSeconds converts a valid GTFS time string to seconds after midnight.
// Values past 24:00:00 keep accumulating (25:10:00 -> 90600).
func timeSeconds(s string) int {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	sec, _ := strconv.Atoi(parts[2])
	return h*3600 + m*60 + sec
}

// effectiveSeconds is the sort key of a stop_time row: departure when set,
// else arrival. ok is false for rows carrying neither time.
func effectiveSeconds(rec StopTimeRecord) (int, bool) {
	if rec.Departure != "" {
		return timeSeconds(rec.Departure), true
	}
	if rec.Arrival != "" {
		return timeSeconds(rec.Arrival), true
	}
	return 0, false
}
