package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/cube-core/internal/cube"
	"github.com/nerrad567/cube-core/internal/sensordata"
	"github.com/nerrad567/cube-core/internal/token"
)

// memCubeRepo is an in-memory cube.Repository.
type memCubeRepo struct {
	mu    sync.Mutex
	cubes map[string]cube.Cube
}

func newMemCubeRepo() *memCubeRepo {
	return &memCubeRepo{cubes: make(map[string]cube.Cube)}
}

func (m *memCubeRepo) GetByID(_ context.Context, id string) (*cube.Cube, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cubes[id]
	if !ok {
		return nil, cube.ErrCubeNotFound
	}
	return &c, nil
}

func (m *memCubeRepo) List(_ context.Context) ([]cube.Cube, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]cube.Cube, 0, len(m.cubes))
	for _, c := range m.cubes {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCubeRepo) ListByLocation(_ context.Context, location string) ([]cube.Cube, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []cube.Cube
	for _, c := range m.cubes {
		if c.Location == location {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCubeRepo) Create(_ context.Context, c *cube.Cube) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cubes[c.ID]; exists {
		return cube.ErrCubeExists
	}
	m.cubes[c.ID] = *c
	return nil
}

func (m *memCubeRepo) Update(_ context.Context, c *cube.Cube) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cubes[c.ID]; !exists {
		return cube.ErrCubeNotFound
	}
	m.cubes[c.ID] = *c
	return nil
}

func (m *memCubeRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cubes[id]; !exists {
		return cube.ErrCubeNotFound
	}
	delete(m.cubes, id)
	return nil
}

func (m *memCubeRepo) Clear(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.cubes))
	for id := range m.cubes {
		ids = append(ids, id)
	}
	m.cubes = make(map[string]cube.Cube)
	return ids, nil
}

// memStore is an in-memory sensordata.Store.
type memStore struct {
	mu       sync.Mutex
	readings []sensordata.Reading
	err      error
}

func (m *memStore) Append(_ context.Context, cubeID string, value float64) (sensordata.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return sensordata.Reading{}, m.err
	}
	r := sensordata.Reading{CubeID: cubeID, Timestamp: 1700000000, Value: value}
	m.readings = append(m.readings, r)
	return r, nil
}

func (m *memStore) Query(_ context.Context, _ sensordata.Filter) ([]sensordata.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sensordata.Reading(nil), m.readings...), nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = nil
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.readings)
}

// memTokenRepo is an in-memory token.Repository.
type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]token.Token
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]token.Token)}
}

func (m *memTokenRepo) Get(_ context.Context, name string) (*token.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[name]
	if !ok {
		return nil, token.ErrTokenNotFound
	}
	return &t, nil
}

func (m *memTokenRepo) Save(_ context.Context, t token.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Name] = t
	return nil
}

func (m *memTokenRepo) Authenticate(_ context.Context, key string) (*token.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Key == key {
			return &t, nil
		}
	}
	return nil, token.ErrTokenNotFound
}

func (m *memTokenRepo) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[name]; !ok {
		return token.ErrTokenNotFound
	}
	delete(m.tokens, name)
	return nil
}

func (m *memTokenRepo) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = make(map[string]token.Token)
	return nil
}

// memLoop records feedback observations.
type memLoop struct {
	mu       sync.Mutex
	observed []float64
	forgot   []string
	err      error
}

func (m *memLoop) Observe(_, _ string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.observed = append(m.observed, value)
	return nil
}

func (m *memLoop) Forget(cubeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgot = append(m.forgot, cubeID)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// testPipeline wires a pipeline from in-memory parts.
type testPipeline struct {
	pipeline *Pipeline
	broker   *mockBroker
	registry *cube.Registry
	store    *memStore
	tokens   *memTokenRepo
	loop     *memLoop
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()

	broker := newMockBroker()
	registry := cube.NewRegistry(newMemCubeRepo())
	store := &memStore{}
	tokens := newMemTokenRepo()
	loop := &memLoop{}

	p := NewPipeline(Config{
		Broker:   broker,
		QoS:      2,
		Registry: registry,
		Store:    store,
		Tokens:   tokens,
		Loop:     loop,
		Logger:   noopLogger{},
	})

	return &testPipeline{
		pipeline: p,
		broker:   broker,
		registry: registry,
		store:    store,
		tokens:   tokens,
		loop:     loop,
	}
}

func TestPipelineStates(t *testing.T) {
	tp := newTestPipeline(t)
	p := tp.pipeline

	if p.State() != StateDisconnected {
		t.Errorf("initial State() = %v, want disconnected", p.State())
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if p.State() != StateConnecting {
		t.Errorf("State() after Start = %v, want connecting", p.State())
	}
	if p.Configured() {
		t.Error("Configured() = true with no server token, want false")
	}

	p.OnConnect()
	if p.State() != StateConnected {
		t.Errorf("State() after OnConnect = %v, want connected", p.State())
	}

	p.OnDisconnect(errors.New("network"))
	if p.State() != StateConnecting {
		t.Errorf("State() after OnDisconnect = %v, want connecting", p.State())
	}

	p.Stop()
	if p.State() != StateDisconnected {
		t.Errorf("State() after Stop = %v, want disconnected", p.State())
	}
}

func TestPipelineStartConfigured(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()

	if err := tp.tokens.Save(ctx, token.Token{Name: token.NameServer, Key: "k"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := tp.pipeline.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !tp.pipeline.Configured() {
		t.Error("Configured() = false with server token present, want true")
	}
}

// TestPipelineOnConnectSubscribes verifies subscriptions are only
// established once the installation is configured.
func TestPipelineOnConnectSubscribes(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		tp := newTestPipeline(t)
		if err := tp.pipeline.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		tp.pipeline.OnConnect()

		if tp.pipeline.Subscriptions().LifecycleActive() {
			t.Error("lifecycle subscription established while unconfigured")
		}
		if tp.pipeline.Subscriptions().CubeCount() != 0 {
			t.Error("per-cube subscriptions established while unconfigured")
		}
	})

	t.Run("configured with registered cubes", func(t *testing.T) {
		tp := newTestPipeline(t)
		ctx := context.Background()

		if err := tp.tokens.Save(ctx, token.Token{Name: token.NameServer, Key: "k"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := tp.registry.Add(ctx, cube.Cube{ID: testCubeID, Location: "lab"}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}

		if err := tp.pipeline.Start(ctx); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		tp.pipeline.OnConnect()

		if !tp.pipeline.Subscriptions().LifecycleActive() {
			t.Error("lifecycle subscription not established")
		}
		if !tp.pipeline.Subscriptions().HasCube(testCubeID) {
			t.Error("registered cube's sensor topics not subscribed on connect")
		}
	})
}

// TestPipelineReadingFlow exercises the full path: an MQTT sensor
// message lands in the store and drives the feedback loop.
func TestPipelineReadingFlow(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()

	if err := tp.registry.Add(ctx, cube.Cube{ID: testCubeID, Location: "lab"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	topic := "sensor/bme680/" + testCubeID + "/lab"
	if err := tp.pipeline.HandleMessage(topic, []byte(`{"iaq":42.5}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if tp.store.count() != 1 {
		t.Fatalf("store has %d readings, want 1", tp.store.count())
	}
	if len(tp.loop.observed) != 1 || tp.loop.observed[0] != 42.5 {
		t.Errorf("loop observed = %v, want [42.5]", tp.loop.observed)
	}
}

// TestPipelineNonAirQualityReading verifies readings from sensors other
// than the designated air-quality type are accepted but neither stored
// nor fed to the feedback loop.
func TestPipelineNonAirQualityReading(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()

	if err := tp.registry.Add(ctx, cube.Cube{ID: testCubeID, Location: "lab"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	topic := "sensor/dht22/" + testCubeID + "/lab"
	if err := tp.pipeline.HandleMessage(topic, []byte(`{"value":19.5}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if tp.store.count() != 0 {
		t.Errorf("store has %d readings, want 0", tp.store.count())
	}
	if len(tp.loop.observed) != 0 {
		t.Errorf("loop observed %v for non-air-quality sensor, want none", tp.loop.observed)
	}
}

// TestPipelineDropsUnregisteredCube verifies readings from unknown cubes
// are dropped without error.
func TestPipelineDropsUnregisteredCube(t *testing.T) {
	tp := newTestPipeline(t)

	topic := "sensor/bme680/" + testCubeID + "/lab"
	if err := tp.pipeline.HandleMessage(topic, []byte(`{"iaq":42.5}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v, want nil for dropped reading", err)
	}
	if tp.store.count() != 0 {
		t.Errorf("store has %d readings from unregistered cube, want 0", tp.store.count())
	}
}

func TestPipelineLifecycleCreate(t *testing.T) {
	tp := newTestPipeline(t)

	payload := `{"id":"` + testCubeID + `","location":"living-room"}`
	if err := tp.pipeline.HandleMessage("cube/create", []byte(payload)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if !tp.registry.Exists(testCubeID) {
		t.Error("cube not registered after lifecycle create")
	}
	// The registry's subscriber hook subscribes the cube's sensor topics
	if !tp.pipeline.Subscriptions().HasCube(testCubeID) {
		t.Error("cube sensor topics not subscribed after lifecycle create")
	}
}

func TestPipelineLifecycleDelete(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()

	if err := tp.registry.Add(ctx, cube.Cube{ID: testCubeID, Location: "lab"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	payload := `{"id":"` + testCubeID + `"}`
	if err := tp.pipeline.HandleMessage("cube/delete", []byte(payload)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if tp.registry.Exists(testCubeID) {
		t.Error("cube still registered after lifecycle delete")
	}
	if len(tp.loop.forgot) != 1 || tp.loop.forgot[0] != testCubeID {
		t.Errorf("loop.Forget calls = %v, want [%s]", tp.loop.forgot, testCubeID)
	}
}

// TestPipelineHandlerFailuresAreContained verifies store and loop
// failures surface as errors but leave the pipeline functional.
func TestPipelineHandlerFailuresAreContained(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()

	if err := tp.registry.Add(ctx, cube.Cube{ID: testCubeID, Location: "lab"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	topic := "sensor/bme680/" + testCubeID + "/lab"

	tp.store.err = errors.New("disk full")
	if err := tp.pipeline.HandleMessage(topic, []byte(`{"iaq":42.5}`)); err == nil {
		t.Error("HandleMessage() error = nil, want store failure")
	}

	// Recovery: the same pipeline keeps processing once the store heals
	tp.store.err = nil
	if err := tp.pipeline.HandleMessage(topic, []byte(`{"iaq":42.5}`)); err != nil {
		t.Errorf("HandleMessage() after recovery error = %v", err)
	}
}

func TestPipelineConfigureAndDeconfigure(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()

	if err := tp.registry.Add(ctx, cube.Cube{ID: testCubeID, Location: "lab"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	// Drop the subscription made by the registry hook to isolate Configure's work
	if err := tp.pipeline.Subscriptions().UnsubscribeCube(testCubeID); err != nil {
		t.Fatalf("UnsubscribeCube() error = %v", err)
	}

	tp.pipeline.Configure()
	if !tp.pipeline.Configured() {
		t.Error("Configured() = false after Configure")
	}
	if !tp.pipeline.Subscriptions().LifecycleActive() {
		t.Error("lifecycle wildcard not subscribed by Configure")
	}
	if !tp.pipeline.Subscriptions().HasCube(testCubeID) {
		t.Error("registered cube not subscribed by Configure")
	}

	tp.pipeline.Deconfigure()
	if tp.pipeline.Configured() {
		t.Error("Configured() = true after Deconfigure")
	}
	if tp.pipeline.Subscriptions().LifecycleActive() {
		t.Error("lifecycle subscription survives Deconfigure")
	}
	if tp.pipeline.Subscriptions().CubeCount() != 0 {
		t.Error("per-cube subscriptions survive Deconfigure")
	}
}

// TestPipelineSinks verifies accepted readings fan out to registered sinks.
func TestPipelineSinks(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()

	if err := tp.registry.Add(ctx, cube.Cube{ID: testCubeID, Location: "lab"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	var mu sync.Mutex
	var got []sensordata.Reading
	tp.pipeline.AddSink(func(r sensordata.Reading, sensorType, location string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, r)
	})

	topic := "sensor/bme680/" + testCubeID + "/lab"
	if err := tp.pipeline.HandleMessage(topic, []byte(`{"iaq":42.5}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Value != 42.5 {
		t.Errorf("sink received %v, want one reading of 42.5", got)
	}
}
