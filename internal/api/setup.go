package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/cube-core/internal/cube"
	"github.com/nerrad567/cube-core/internal/token"
)

// setupRequest is the body of POST /api/setup.
//
// Token is the installer-supplied server credential. Cubes is the optional
// initial device list; each entry is attempted independently and reported
// in the per-item results. AppTokenTTL is the lifetime of the minted
// dashboard token in seconds; zero means it never expires.
type setupRequest struct {
	Token       string      `json:"token"`
	Cubes       []cube.Cube `json:"cubes,omitempty"`
	AppTokenTTL int64       `json:"app_token_ttl,omitempty"`
}

// setupResponse is the body returned by a successful setup.
type setupResponse struct {
	AppToken string             `json:"app_token"`
	Cubes    []cube.BatchResult `json:"cubes,omitempty"`
}

// handleSetup performs first-run configuration: it records the server
// credential, registers the initial cube list, mints the dashboard app
// token, and moves the ingestion pipeline to the configured state.
//
// The endpoint is idempotent. Re-running setup with the same server token
// re-mints the app token and retries the cube list; a different token on
// an already-configured installation is rejected.
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Token == "" {
		writeBadRequest(w, "token is required")
		return
	}
	if req.AppTokenTTL < 0 {
		writeBadRequest(w, "app_token_ttl must not be negative")
		return
	}

	ctx := r.Context()

	// An already-configured installation only accepts its own credential.
	existing, err := s.tokens.Get(ctx, token.NameServer)
	if err != nil && !errors.Is(err, token.ErrTokenNotFound) {
		writeInternalError(w, "failed to check configuration state")
		return
	}
	if existing != nil && existing.Key != req.Token {
		writeUnauthorized(w, "server token mismatch")
		return
	}

	if err := s.tokens.Save(ctx, token.Token{Name: token.NameServer, Key: req.Token}); err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			writeBadRequest(w, "invalid server token")
			return
		}
		writeInternalError(w, "failed to save server token")
		return
	}

	appKey := token.GenerateKey()
	appToken := token.Token{Name: token.NameApp, Key: appKey, TTL: req.AppTokenTTL}
	if err := s.tokens.Save(ctx, appToken); err != nil {
		writeInternalError(w, "failed to mint app token")
		return
	}

	results := s.registry.AddBatch(ctx, req.Cubes)

	s.pipeline.Configure()

	s.logger.Info("setup completed", "cubes", len(req.Cubes))
	writeJSON(w, http.StatusOK, setupResponse{
		AppToken: appKey,
		Cubes:    results,
	})
}

// handleReset performs a factory reset: all cubes are removed (with their
// readings, via the cascade), tokens are cleared, the feedback windows are
// dropped, and the pipeline returns to the unconfigured state.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.registry.Clear(ctx); err != nil {
		writeInternalError(w, "failed to clear cube registry")
		return
	}
	if err := s.store.Clear(ctx); err != nil {
		writeInternalError(w, "failed to clear sensor data")
		return
	}
	if err := s.tokens.Clear(ctx); err != nil {
		writeInternalError(w, "failed to clear tokens")
		return
	}
	if s.loop != nil {
		s.loop.Reset()
	}

	s.pipeline.Deconfigure()

	s.logger.Info("factory reset completed")
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}
