package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// First-run setup (no auth required; subsequent calls are idempotent
		// and still require the matching server token in the body)
		r.Post("/setup", s.handleSetup)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/reset", s.handleReset)

			// Cube registry endpoints
			r.Route("/cubes", func(r chi.Router) {
				r.Get("/", s.handleListCubes)
				r.Post("/", s.handleCreateCube)

				r.Route("/{cubeID}", func(r chi.Router) {
					r.Get("/", s.handleGetCube)
					r.Put("/", s.handleUpdateCube)
					r.Delete("/", s.handleDeleteCube)
				})
			})

			// Sensor data queries
			r.Route("/sensor-data", func(r chi.Router) {
				r.Post("/", s.handleQueryAllSensorData)
				r.Post("/{cubeID}", s.handleQuerySensorData)
			})

			// WebSocket (auth via middleware, upgrade in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status, the ingestion pipeline's
// connection state, and whether the installation has completed setup.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"pipeline":   s.pipeline.State().String(),
		"configured": s.pipeline.Configured(),
		"cubes":      s.registry.Count(),
	})
}
