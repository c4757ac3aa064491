package timetable

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorKind labels an error for metrics and picks its HTTP status.
func errorKind(err error) (string, int) {
	var nf *NotFoundError
	var di *DataIntegrityError
	var ve *ValidationError
	var se *StorageError
	switch {
	case errors.As(err, &nf):
		return "not_found", http.StatusNotFound
	case errors.As(err, &ve):
		return "validation", http.StatusBadRequest
	case errors.As(err, &di):
		return "data_integrity", http.StatusUnprocessableEntity
	case errors.As(err, &se):
		return "storage", http.StatusBadGateway
	default:
		return "other", http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	_, status := errorKind(err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleTimetable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	routeID := q.Get("routeId")
	serviceID := q.Get("serviceId")
	if routeID == "" || serviceID == "" {
		writeError(w, &ValidationError{Rule: "query", Msg: "routeId and serviceId are required"})
		return
	}

	start := time.Now()
	data, err := s.builder.Build(r.Context(), routeID, serviceID, q.Get("directionId"))
	kind, _ := errorKind(err)
	if err == nil {
		kind = ""
	}
	s.metrics.ObserveBuild(time.Since(start), err, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

type setTimeRequest struct {
	TripID string  `json:"tripId"`
	StopID string  `json:"stopId"`
	Value  *string `json:"value"` // null clears
	Field  string  `json:"field"` // arrival|departure|linked
}

func (s *Server) handleSetTime(w http.ResponseWriter, r *http.Request) {
	var req setTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Rule: "body", Msg: "malformed JSON body"})
		return
	}
	if req.TripID == "" || req.StopID == "" {
		writeError(w, &ValidationError{Rule: "body", Msg: "tripId and stopId are required"})
		return
	}
	err := s.mutator.SetTime(r.Context(), req.TripID, req.StopID, req.Value, Field(req.Field))
	s.finishMutation(w, "set_time", req.TripID, err)
}

type skipRequest struct {
	TripID string `json:"tripId"`
	StopID string `json:"stopId"`
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	var req skipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Rule: "body", Msg: "malformed JSON body"})
		return
	}
	if req.TripID == "" || req.StopID == "" {
		writeError(w, &ValidationError{Rule: "body", Msg: "tripId and stopId are required"})
		return
	}
	err := s.mutator.Skip(r.Context(), req.TripID, req.StopID)
	s.finishMutation(w, "skip", req.TripID, err)
}

type rebuildRequest struct {
	Entries []SnapshotEntry `json:"entries"`
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripId")
	if tripID == "" {
		writeError(w, &ValidationError{Rule: "path", Msg: "tripId is required"})
		return
	}
	var req rebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Rule: "body", Msg: "malformed JSON body"})
		return
	}
	err := s.mutator.RebuildFromSnapshot(r.Context(), tripID, req.Entries)
	s.finishMutation(w, "rebuild", tripID, err)
}

// finishMutation reports the outcome: metrics, mutation event, response.
// The event is best-effort and never changes the result the caller sees.
func (s *Server) finishMutation(w http.ResponseWriter, op, tripID string, err error) {
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			s.metrics.MutationInc(op, "rejected")
		} else {
			s.metrics.MutationInc(op, "error")
		}
		writeError(w, err)
		return
	}
	s.metrics.MutationInc(op, "ok")
	s.events.PublishMutation(tripID, op)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
