package cube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Subscriber receives registry membership changes so the transport layer
// can keep per-cube sensor subscriptions in sync. Implemented by the
// ingestion subscription manager.
type Subscriber interface {
	SubscribeCube(id string) error
	UnsubscribeCube(id string) error
}

// Registry provides cube management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by the CRUD operations. When a Subscriber is attached, additions and
// removals are mirrored into topic subscriptions; subscription failures
// are logged but never roll back the registry change (the subscription
// manager re-syncs on the next reconnect).
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]Cube
	cacheMu sync.RWMutex
	logger  Logger

	subscriber   Subscriber
	subscriberMu sync.RWMutex
}

// NewRegistry creates a new cube registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]Cube),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetSubscriber attaches the subscription manager.
func (r *Registry) SetSubscriber(s Subscriber) {
	r.subscriberMu.Lock()
	r.subscriber = s
	r.subscriberMu.Unlock()
}

func (r *Registry) getSubscriber() Subscriber {
	r.subscriberMu.RLock()
	defer r.subscriberMu.RUnlock()
	return r.subscriber
}

// RefreshCache reloads all cubes from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	cubes, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading cubes: %w", err)
	}

	r.cacheMu.Lock()
	r.cache = make(map[string]Cube, len(cubes))
	for _, c := range cubes {
		r.cache[c.ID] = c
	}
	r.cacheMu.Unlock()

	r.logger.Info("cube cache refreshed", "count", len(cubes))
	return nil
}

// Get retrieves a cube by ID.
// Returns ErrCubeNotFound if the cube does not exist.
func (r *Registry) Get(ctx context.Context, id string) (*Cube, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		c := cached
		return &c, nil
	}

	// Fall back to repository (might be a new cube not yet cached)
	c, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[c.ID] = *c
	r.cacheMu.Unlock()

	return c, nil
}

// Exists reports whether a cube is registered, consulting only the cache.
// Used on the ingestion hot path where a repository round trip per
// message would be wasteful.
func (r *Registry) Exists(id string) bool {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	_, ok := r.cache[id]
	return ok
}

// List retrieves all registered cubes.
func (r *Registry) List(ctx context.Context) ([]Cube, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		cubes := make([]Cube, 0, len(r.cache))
		for _, c := range r.cache {
			cubes = append(cubes, c)
		}
		r.cacheMu.RUnlock()
		return cubes, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.List(ctx)
}

// ListByLocation retrieves the cubes at a given location.
// Returns ErrInvalidLocation if the location is empty.
func (r *Registry) ListByLocation(ctx context.Context, location string) ([]Cube, error) {
	if err := ValidateLocation(location); err != nil {
		return nil, err
	}
	return r.repo.ListByLocation(ctx, strings.TrimSpace(location))
}

// Count returns the number of registered cubes.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Add validates, persists, and caches a new cube, then subscribes to its
// sensor topics.
//
// Returns ErrInvalidCubeID/ErrInvalidLocation on validation failure and
// ErrCubeExists if the ID is already registered.
func (r *Registry) Add(ctx context.Context, c Cube) error {
	if err := Validate(c); err != nil {
		return err
	}
	c.Location = strings.TrimSpace(c.Location)

	if err := r.repo.Create(ctx, &c); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[c.ID] = c
	r.cacheMu.Unlock()

	r.logger.Info("cube registered", "cube_id", c.ID, "location", c.Location)

	if sub := r.getSubscriber(); sub != nil {
		if err := sub.SubscribeCube(c.ID); err != nil {
			r.logger.Warn("subscribing to cube topics failed",
				"cube_id", c.ID, "error", err)
		}
	}
	return nil
}

// AddBatch registers multiple cubes, continuing past individual failures.
//
// The returned slice has one entry per input cube, in input order, each
// reporting whether the cube was added and why not otherwise.
func (r *Registry) AddBatch(ctx context.Context, cubes []Cube) []BatchResult {
	results := make([]BatchResult, 0, len(cubes))
	for _, c := range cubes {
		result := BatchResult{Cube: c, Status: BatchAdded}

		switch err := r.Add(ctx, c); {
		case err == nil:
		case isValidationError(err):
			result.Status = BatchInvalid
			result.Error = err.Error()
		case isConflictError(err):
			result.Status = BatchExists
			result.Error = err.Error()
		default:
			result.Status = BatchFailed
			result.Error = err.Error()
		}

		results = append(results, result)
	}
	return results
}

// Update validates and persists a location change for an existing cube.
func (r *Registry) Update(ctx context.Context, c Cube) error {
	if err := Validate(c); err != nil {
		return err
	}
	c.Location = strings.TrimSpace(c.Location)

	if err := r.repo.Update(ctx, &c); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[c.ID] = c
	r.cacheMu.Unlock()

	r.logger.Info("cube updated", "cube_id", c.ID, "location", c.Location)
	return nil
}

// Remove deletes a cube and unsubscribes from its sensor topics.
// The cube's stored readings are removed by the database cascade.
func (r *Registry) Remove(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("cube removed", "cube_id", id)

	if sub := r.getSubscriber(); sub != nil {
		if err := sub.UnsubscribeCube(id); err != nil {
			r.logger.Warn("unsubscribing from cube topics failed",
				"cube_id", id, "error", err)
		}
	}
	return nil
}

// Clear removes all cubes, their readings (via cascade), and their
// subscriptions. Used by the factory-reset flow.
func (r *Registry) Clear(ctx context.Context) error {
	ids, err := r.repo.Clear(ctx)
	if err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache = make(map[string]Cube)
	r.cacheMu.Unlock()

	r.logger.Info("registry cleared", "count", len(ids))

	if sub := r.getSubscriber(); sub != nil {
		for _, id := range ids {
			if err := sub.UnsubscribeCube(id); err != nil {
				r.logger.Warn("unsubscribing from cube topics failed",
					"cube_id", id, "error", err)
			}
		}
	}
	return nil
}

// isValidationError reports whether err is one of the validation sentinels.
func isValidationError(err error) bool {
	return errors.Is(err, ErrInvalidCubeID) || errors.Is(err, ErrInvalidLocation)
}

// isConflictError reports whether err indicates a duplicate cube.
func isConflictError(err error) bool {
	return errors.Is(err, ErrCubeExists)
}
