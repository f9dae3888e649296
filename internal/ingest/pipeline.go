package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/cube-core/internal/cube"
	"github.com/nerrad567/cube-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/cube-core/internal/sensordata"
	"github.com/nerrad567/cube-core/internal/token"
)

// handlerTimeout bounds the processing of one MQTT message. A handler
// that cannot finish inside this window is abandoned and its message
// dropped; the pipeline keeps running.
const handlerTimeout = 10 * time.Second

// State is the pipeline's connection state.
type State int32

// Pipeline states.
const (
	// StateDisconnected means no broker connection and none in progress.
	StateDisconnected State = iota

	// StateConnecting means a connection attempt or reconnect is in flight.
	StateConnecting

	// StateConnected means messages are flowing.
	StateConnected
)

// String returns the state name for logging and the health endpoint.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Logger defines the logging interface used by the Pipeline.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ReadingSink receives accepted readings beyond the primary store:
// the InfluxDB mirror and the WebSocket hub both satisfy this.
type ReadingSink func(r sensordata.Reading, sensorType, location string)

// FeedbackLoop is the slice of the feedback loop the pipeline drives.
type FeedbackLoop interface {
	Observe(cubeID, location string, value float64) error
	Forget(cubeID string)
}

// Pipeline dispatches decoded MQTT messages to the domain layer.
//
// It tracks two orthogonal pieces of state: the broker connection
// (disconnected / connecting / connected, driven by transport callbacks)
// and whether the installation is configured (a server token exists).
// Subscriptions exist only while connected and configured: the lifecycle
// wildcard plus one sensor wildcard per registered cube.
//
// All methods are safe for concurrent use.
type Pipeline struct {
	subs     *SubscriptionManager
	registry *cube.Registry
	store    sensordata.Store
	tokens   token.Repository
	loop     FeedbackLoop
	logger   Logger

	sinks   []ReadingSink
	sinksMu sync.RWMutex

	state      State
	configured bool
	stateMu    sync.RWMutex
}

// Config collects the pipeline's dependencies.
type Config struct {
	Broker   Broker
	QoS      byte
	Registry *cube.Registry
	Store    sensordata.Store
	Tokens   token.Repository
	Loop     FeedbackLoop
	Logger   Logger
}

// NewPipeline assembles a pipeline and its subscription manager.
//
// The registry's subscriber hook is attached here so cube additions and
// removals keep sensor subscriptions in sync without the registry
// knowing about MQTT.
func NewPipeline(cfg Config) *Pipeline {
	p := &Pipeline{
		registry: cfg.Registry,
		store:    cfg.Store,
		tokens:   cfg.Tokens,
		loop:     cfg.Loop,
		logger:   cfg.Logger,
		state:    StateDisconnected,
	}
	p.subs = NewSubscriptionManager(cfg.Broker, cfg.QoS, p.HandleMessage)
	cfg.Registry.SetSubscriber(p.subs)
	return p
}

// Subscriptions exposes the subscription manager (for the API layer's
// health and debug endpoints).
func (p *Pipeline) Subscriptions() *SubscriptionManager {
	return p.subs
}

// AddSink registers an extra destination for accepted readings.
func (p *Pipeline) AddSink(sink ReadingSink) {
	p.sinksMu.Lock()
	p.sinks = append(p.sinks, sink)
	p.sinksMu.Unlock()
}

// State returns the current connection state.
func (p *Pipeline) State() State {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.state
}

// Configured reports whether a server token is present.
func (p *Pipeline) Configured() bool {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.configured
}

// Start checks the stored configuration state and moves to connecting.
// Call before the MQTT client connects; the OnConnect callback completes
// the transition.
func (p *Pipeline) Start(ctx context.Context) error {
	configured, err := p.loadConfigured(ctx)
	if err != nil {
		return fmt.Errorf("loading configuration state: %w", err)
	}

	p.stateMu.Lock()
	p.configured = configured
	p.state = StateConnecting
	p.stateMu.Unlock()

	p.logger.Info("ingestion pipeline starting", "configured", configured)
	return nil
}

// loadConfigured checks for the server token.
func (p *Pipeline) loadConfigured(ctx context.Context) (bool, error) {
	_, err := p.tokens.Get(ctx, token.NameServer)
	if err != nil {
		if errors.Is(err, token.ErrTokenNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// OnConnect is wired to the MQTT client's connect callback. It moves the
// pipeline to connected and establishes the subscriptions the current
// configuration state calls for. Runs on initial connect and on every
// reconnect; the subscribe calls are idempotent so replays are harmless.
func (p *Pipeline) OnConnect() {
	p.stateMu.Lock()
	p.state = StateConnected
	configured := p.configured
	p.stateMu.Unlock()

	p.logger.Info("broker connected", "configured", configured)

	// An unconfigured installation holds no subscriptions at all; the
	// transport is up but the pipeline stays silent until setup runs.
	if !configured {
		return
	}

	if err := p.subs.SubscribeLifecycle(); err != nil {
		p.logger.Error("subscribing lifecycle topics failed", "error", err)
	}
	p.subscribeRegisteredCubes()
}

// OnDisconnect is wired to the MQTT client's connection-lost callback.
// The client reconnects on its own, so the pipeline parks in connecting.
func (p *Pipeline) OnDisconnect(err error) {
	p.stateMu.Lock()
	p.state = StateConnecting
	p.stateMu.Unlock()

	p.logger.Warn("broker connection lost", "error", err)
}

// Stop moves the pipeline to disconnected. Call during shutdown after
// the MQTT client is closed.
func (p *Pipeline) Stop() {
	p.stateMu.Lock()
	p.state = StateDisconnected
	p.stateMu.Unlock()

	p.logger.Info("ingestion pipeline stopped")
}

// Configure marks the installation as configured and subscribes sensor
// topics for every registered cube. Called by the API setup flow after
// the server token is persisted.
func (p *Pipeline) Configure() {
	p.stateMu.Lock()
	p.configured = true
	p.stateMu.Unlock()

	p.logger.Info("installation configured")

	if err := p.subs.SubscribeLifecycle(); err != nil {
		p.logger.Error("subscribing lifecycle topics failed", "error", err)
	}
	p.subscribeRegisteredCubes()
}

// Deconfigure drops the configured state and all per-cube subscriptions.
// Called by the factory-reset flow.
func (p *Pipeline) Deconfigure() {
	p.stateMu.Lock()
	p.configured = false
	p.stateMu.Unlock()

	if err := p.subs.UnsubscribeLifecycle(); err != nil {
		p.logger.Warn("dropping lifecycle subscription failed", "error", err)
	}
	if err := p.subs.UnsubscribeAllCubes(); err != nil {
		p.logger.Warn("dropping cube subscriptions failed", "error", err)
	}
	p.logger.Info("installation reset to unconfigured")
}

// subscribeRegisteredCubes subscribes sensor topics for every cube in
// the registry. Failures are logged per cube; a broker hiccup on one
// subscription must not block the rest.
func (p *Pipeline) subscribeRegisteredCubes() {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	cubes, err := p.registry.List(ctx)
	if err != nil {
		p.logger.Error("listing cubes for subscription failed", "error", err)
		return
	}

	ids := make([]string, 0, len(cubes))
	for _, c := range cubes {
		ids = append(ids, c.ID)
	}
	if err := p.subs.SubscribeCubes(ids); err != nil {
		p.logger.Warn("some cube subscriptions failed", "error", err)
	}
	p.logger.Info("cube sensor subscriptions established", "count", len(ids))
}

// HandleMessage is the single MQTT message entry point.
//
// The message is decoded into its variant and dispatched under a
// per-message timeout. Failures are logged and returned (the transport
// wrapper logs them too) but never propagate further - a bad message is
// dropped, not fatal.
func (p *Pipeline) HandleMessage(topic string, payload []byte) error {
	msg, err := Decode(topic, payload)
	if err != nil {
		p.logger.Warn("dropping undecodable message", "topic", topic, "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch msg.Kind {
	case KindLifecycle:
		err = p.handleLifecycle(ctx, msg.Lifecycle)
	case KindReading:
		err = p.handleReading(ctx, msg.Reading)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	if err != nil {
		p.logger.Warn("message handling failed",
			"topic", topic, "kind", msg.Kind.String(), "error", err)
	}
	return err
}

// handleLifecycle applies a cube lifecycle announcement to the registry.
func (p *Pipeline) handleLifecycle(ctx context.Context, lc *Lifecycle) error {
	switch lc.Action {
	case mqtt.LifecycleCreate:
		return p.registry.Add(ctx, lc.Cube)
	case mqtt.LifecycleUpdate:
		return p.registry.Update(ctx, lc.Cube)
	case mqtt.LifecycleDelete:
		if err := p.registry.Remove(ctx, lc.Cube.ID); err != nil {
			return err
		}
		p.loop.Forget(lc.Cube.ID)
		return nil
	default:
		return fmt.Errorf("%w: lifecycle action %q", ErrUnknownTopic, lc.Action)
	}
}

// handleReading stores an air-quality reading and feeds the feedback
// loop. Only the designated air-quality sensor is persisted; readings
// from other declared sensor types are accepted and dropped.
//
// Readings from cubes that are not registered are dropped too - either
// the cube was removed while messages were in flight, or something is
// publishing under an ID it does not own.
func (p *Pipeline) handleReading(ctx context.Context, r *Reading) error {
	if !p.registry.Exists(r.CubeID) {
		p.logger.Debug("dropping reading from unregistered cube",
			"cube_id", r.CubeID, "sensor_type", r.SensorType)
		return nil
	}

	if !r.AirQuality() {
		p.logger.Debug("ignoring reading from undesignated sensor",
			"cube_id", r.CubeID, "sensor_type", r.SensorType)
		return nil
	}

	stored, err := p.store.Append(ctx, r.CubeID, r.Value)
	if err != nil {
		return fmt.Errorf("storing reading: %w", err)
	}

	p.sinksMu.RLock()
	sinks := p.sinks
	p.sinksMu.RUnlock()
	for _, sink := range sinks {
		sink(stored, r.SensorType, r.Location)
	}

	if err := p.loop.Observe(r.CubeID, r.Location, r.Value); err != nil {
		return fmt.Errorf("feedback loop: %w", err)
	}
	return nil
}
