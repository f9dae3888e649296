// Package api provides the HTTP REST API and WebSocket server for Cube Core.
//
// It exposes the setup and factory-reset flows, cube registry CRUD, sensor
// data queries, and a WebSocket channel that streams accepted readings to
// the dashboard.
//
// The server follows the same lifecycle pattern as the other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/cube-core/internal/cube"
	"github.com/nerrad567/cube-core/internal/feedback"
	"github.com/nerrad567/cube-core/internal/infrastructure/config"
	"github.com/nerrad567/cube-core/internal/infrastructure/logging"
	"github.com/nerrad567/cube-core/internal/ingest"
	"github.com/nerrad567/cube-core/internal/sensordata"
	"github.com/nerrad567/cube-core/internal/token"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Registry *cube.Registry
	Store    sensordata.Store
	Tokens   token.Repository
	Pipeline *ingest.Pipeline
	Loop     *feedback.Loop
	Version  string
}

// Server is the HTTP API server for Cube Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	registry *cube.Registry
	store    sensordata.Store
	tokens   token.Repository
	pipeline *ingest.Pipeline
	loop     *feedback.Loop
	version  string
	server   *http.Server
	hub      *Hub
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("cube registry is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("sensor data store is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token repository is required")
	}
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("ingestion pipeline is required")
	}
	// Loop is optional — setup and queries work without the feedback loop

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		registry: deps.Registry,
		store:    deps.Store,
		tokens:   deps.Tokens,
		pipeline: deps.Pipeline,
		loop:     deps.Loop,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, registers a pipeline sink that broadcasts
// accepted readings to connected clients, and launches the HTTP listener
// in a background goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop the hub independently of the
	// parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	// Every reading the pipeline accepts is pushed to subscribed clients.
	s.pipeline.AddSink(s.hub.BroadcastReading)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Stop the hub and disconnect WebSocket clients
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
