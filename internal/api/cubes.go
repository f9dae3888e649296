package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/cube-core/internal/cube"
)

// handleListCubes returns all registered cubes, or only those at the
// location given by the optional ?location query parameter.
func (s *Server) handleListCubes(w http.ResponseWriter, r *http.Request) {
	var (
		cubes []cube.Cube
		err   error
	)
	if loc := r.URL.Query().Get("location"); loc != "" {
		cubes, err = s.registry.ListByLocation(r.Context(), loc)
	} else {
		cubes, err = s.registry.List(r.Context())
	}
	if err != nil {
		if errors.Is(err, cube.ErrInvalidLocation) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to list cubes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cubes": cubes, "count": len(cubes)})
}

// handleGetCube returns a single cube by ID.
func (s *Server) handleGetCube(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cubeID")

	c, err := s.registry.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, cube.ErrCubeNotFound) {
			writeNotFound(w, "cube not found")
			return
		}
		writeInternalError(w, "failed to get cube")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// handleCreateCube registers a new cube. The ingestion pipeline picks up
// the new device through the registry's subscriber hook.
func (s *Server) handleCreateCube(w http.ResponseWriter, r *http.Request) {
	var c cube.Cube
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.Add(r.Context(), c); err != nil {
		switch {
		case errors.Is(err, cube.ErrInvalidCubeID), errors.Is(err, cube.ErrInvalidLocation):
			writeBadRequest(w, err.Error())
		case errors.Is(err, cube.ErrCubeExists):
			writeConflict(w, "cube already registered")
		default:
			writeInternalError(w, "failed to register cube")
		}
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// handleUpdateCube changes a cube's location label.
func (s *Server) handleUpdateCube(w http.ResponseWriter, r *http.Request) {
	var c cube.Cube
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	// The path parameter is authoritative; a mismatched body ID is rejected.
	id := chi.URLParam(r, "cubeID")
	if c.ID != "" && c.ID != id {
		writeBadRequest(w, "body ID does not match URL")
		return
	}
	c.ID = id

	if err := s.registry.Update(r.Context(), c); err != nil {
		switch {
		case errors.Is(err, cube.ErrInvalidCubeID), errors.Is(err, cube.ErrInvalidLocation):
			writeBadRequest(w, err.Error())
		case errors.Is(err, cube.ErrCubeNotFound):
			writeNotFound(w, "cube not found")
		default:
			writeInternalError(w, "failed to update cube")
		}
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCube removes a cube, its readings, and its subscriptions.
func (s *Server) handleDeleteCube(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cubeID")

	if err := s.registry.Remove(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, cube.ErrInvalidCubeID):
			writeBadRequest(w, err.Error())
		case errors.Is(err, cube.ErrCubeNotFound):
			writeNotFound(w, "cube not found")
		default:
			writeInternalError(w, "failed to delete cube")
		}
		return
	}

	if s.loop != nil {
		s.loop.Forget(id)
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
