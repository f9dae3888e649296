package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/cube-core/internal/sensordata"
)

// sensorDataRequest is the optional body of the sensor data query
// endpoints. Start and End accept unix seconds or a textual timestamp
// (RFC3339, RFC1123, or a bare date); empty means unbounded.
type sensorDataRequest struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// handleQuerySensorData returns a cube's readings inside an optional
// time window, oldest first.
func (s *Server) handleQuerySensorData(w http.ResponseWriter, r *http.Request) {
	s.querySensorData(w, r, chi.URLParam(r, "cubeID"))
}

// handleQueryAllSensorData returns readings across all cubes.
func (s *Server) handleQueryAllSensorData(w http.ResponseWriter, r *http.Request) {
	s.querySensorData(w, r, "")
}

func (s *Server) querySensorData(w http.ResponseWriter, r *http.Request, cubeID string) {
	var req sensorDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	filter, err := sensordata.ParseFilter(cubeID, req.Start, req.End)
	if err != nil {
		switch {
		case errors.Is(err, sensordata.ErrInvalidTimestamp),
			errors.Is(err, sensordata.ErrInvalidTimeRange),
			errors.Is(err, sensordata.ErrInvalidCubeID):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to parse query")
		}
		return
	}

	// A registered-but-silent cube returns an empty list; an unknown cube
	// is a 404 so the dashboard can drop stale charts.
	if cubeID != "" && !s.registry.Exists(cubeID) {
		writeNotFound(w, "cube not found")
		return
	}

	readings, err := s.store.Query(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "failed to query sensor data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"readings": readings,
		"count":    len(readings),
	})
}
