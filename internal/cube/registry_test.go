package cube

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// mockRepository is an in-memory Repository for registry tests.
type mockRepository struct {
	mu    sync.Mutex
	cubes map[string]Cube

	// createErr forces Create to fail when set.
	createErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{cubes: make(map[string]Cube)}
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*Cube, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cubes[id]
	if !ok {
		return nil, ErrCubeNotFound
	}
	return &c, nil
}

func (m *mockRepository) List(_ context.Context) ([]Cube, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cubes := make([]Cube, 0, len(m.cubes))
	for _, c := range m.cubes {
		cubes = append(cubes, c)
	}
	return cubes, nil
}

func (m *mockRepository) ListByLocation(_ context.Context, location string) ([]Cube, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cubes []Cube
	for _, c := range m.cubes {
		if c.Location == location {
			cubes = append(cubes, c)
		}
	}
	return cubes, nil
}

func (m *mockRepository) Create(_ context.Context, c *Cube) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.cubes[c.ID]; exists {
		return ErrCubeExists
	}
	m.cubes[c.ID] = *c
	return nil
}

func (m *mockRepository) Update(_ context.Context, c *Cube) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cubes[c.ID]; !exists {
		return ErrCubeNotFound
	}
	m.cubes[c.ID] = *c
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cubes[id]; !exists {
		return ErrCubeNotFound
	}
	delete(m.cubes, id)
	return nil
}

func (m *mockRepository) Clear(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.cubes))
	for id := range m.cubes {
		ids = append(ids, id)
	}
	m.cubes = make(map[string]Cube)
	return ids, nil
}

// mockSubscriber records subscription changes from the registry.
type mockSubscriber struct {
	mu           sync.Mutex
	subscribed   []string
	unsubscribed []string
	subErr       error
}

func (m *mockSubscriber) SubscribeCube(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subErr != nil {
		return m.subErr
	}
	m.subscribed = append(m.subscribed, id)
	return nil
}

func (m *mockSubscriber) UnsubscribeCube(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribed = append(m.unsubscribed, id)
	return nil
}

func TestRegistryAdd(t *testing.T) {
	repo := newMockRepository()
	sub := &mockSubscriber{}
	reg := NewRegistry(repo)
	reg.SetSubscriber(sub)

	ctx := context.Background()
	c := Cube{ID: validID, Location: "living-room"}

	if err := reg.Add(ctx, c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if !reg.Exists(validID) {
		t.Error("Exists() = false after Add, want true")
	}
	if len(sub.subscribed) != 1 || sub.subscribed[0] != validID {
		t.Errorf("subscribed = %v, want [%s]", sub.subscribed, validID)
	}
}

func TestRegistryAddInvalid(t *testing.T) {
	reg := NewRegistry(newMockRepository())
	ctx := context.Background()

	if err := reg.Add(ctx, Cube{ID: "bad", Location: "x"}); !errors.Is(err, ErrInvalidCubeID) {
		t.Errorf("Add() error = %v, want ErrInvalidCubeID", err)
	}
	if err := reg.Add(ctx, Cube{ID: validID, Location: ""}); !errors.Is(err, ErrInvalidLocation) {
		t.Errorf("Add() error = %v, want ErrInvalidLocation", err)
	}
}

func TestRegistryAddDuplicate(t *testing.T) {
	reg := NewRegistry(newMockRepository())
	ctx := context.Background()
	c := Cube{ID: validID, Location: "living-room"}

	if err := reg.Add(ctx, c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Add(ctx, c); !errors.Is(err, ErrCubeExists) {
		t.Errorf("Add() duplicate error = %v, want ErrCubeExists", err)
	}
}

// TestRegistryAddSubscribeFailure verifies that a subscription failure
// does not roll back the registry change.
func TestRegistryAddSubscribeFailure(t *testing.T) {
	repo := newMockRepository()
	sub := &mockSubscriber{subErr: errors.New("broker down")}
	reg := NewRegistry(repo)
	reg.SetSubscriber(sub)

	if err := reg.Add(context.Background(), Cube{ID: validID, Location: "lab"}); err != nil {
		t.Fatalf("Add() error = %v, want nil despite subscribe failure", err)
	}
	if !reg.Exists(validID) {
		t.Error("cube should remain registered when subscribe fails")
	}
}

func TestRegistryAddBatch(t *testing.T) {
	reg := NewRegistry(newMockRepository())
	ctx := context.Background()

	existing := Cube{ID: "550e8400-e29b-41d4-a716-446655440001", Location: "kitchen"}
	if err := reg.Add(ctx, existing); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	batch := []Cube{
		{ID: "550e8400-e29b-41d4-a716-446655440002", Location: "bedroom"},
		{ID: "not-a-uuid", Location: "hall"},
		existing,
		{ID: "550e8400-e29b-41d4-a716-446655440003", Location: ""},
	}

	results := reg.AddBatch(ctx, batch)
	if len(results) != 4 {
		t.Fatalf("AddBatch() returned %d results, want 4", len(results))
	}

	wantStatuses := []BatchStatus{BatchAdded, BatchInvalid, BatchExists, BatchInvalid}
	for i, want := range wantStatuses {
		if results[i].Status != want {
			t.Errorf("results[%d].Status = %q, want %q (error: %s)",
				i, results[i].Status, want, results[i].Error)
		}
	}

	if !results[0].Succeeded() {
		t.Error("results[0].Succeeded() = false, want true")
	}
	if results[1].Succeeded() {
		t.Error("results[1].Succeeded() = true, want false")
	}

	// The valid cube landed despite failures around it
	if !reg.Exists("550e8400-e29b-41d4-a716-446655440002") {
		t.Error("valid cube from batch was not registered")
	}
}

// TestRegistryAddTrimsLocation verifies that surrounding whitespace is
// stripped before a location is persisted, so a later Get returns the
// trimmed label.
func TestRegistryAddTrimsLocation(t *testing.T) {
	reg := NewRegistry(newMockRepository())
	ctx := context.Background()

	if err := reg.Add(ctx, Cube{ID: validID, Location: "  Lab A  "}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := reg.Get(ctx, validID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Location != "Lab A" {
		t.Errorf("location = %q, want %q", got.Location, "Lab A")
	}
}

func TestRegistryListByLocation(t *testing.T) {
	reg := NewRegistry(newMockRepository())
	ctx := context.Background()

	cubes := []Cube{
		{ID: "550e8400-e29b-41d4-a716-446655440001", Location: "kitchen"},
		{ID: "550e8400-e29b-41d4-a716-446655440002", Location: "kitchen"},
		{ID: "550e8400-e29b-41d4-a716-446655440003", Location: "bedroom"},
	}
	for _, c := range cubes {
		if err := reg.Add(ctx, c); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got, err := reg.ListByLocation(ctx, "kitchen")
	if err != nil {
		t.Fatalf("ListByLocation() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListByLocation(kitchen) returned %d cubes, want 2", len(got))
	}
	for _, c := range got {
		if c.Location != "kitchen" {
			t.Errorf("cube %s has location %q, want kitchen", c.ID, c.Location)
		}
	}

	got, err = reg.ListByLocation(ctx, "cellar")
	if err != nil {
		t.Fatalf("ListByLocation() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListByLocation(cellar) returned %d cubes, want 0", len(got))
	}
}

func TestRegistryListByLocationEmpty(t *testing.T) {
	reg := NewRegistry(newMockRepository())

	for _, loc := range []string{"", "   "} {
		if _, err := reg.ListByLocation(context.Background(), loc); !errors.Is(err, ErrInvalidLocation) {
			t.Errorf("ListByLocation(%q) error = %v, want ErrInvalidLocation", loc, err)
		}
	}
}

func TestRegistryUpdate(t *testing.T) {
	reg := NewRegistry(newMockRepository())
	ctx := context.Background()

	if err := reg.Add(ctx, Cube{ID: validID, Location: "living-room"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Update(ctx, Cube{ID: validID, Location: " hallway "}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := reg.Get(ctx, validID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Location != "hallway" {
		t.Errorf("location = %q, want hallway", got.Location)
	}
}

func TestRegistryRemove(t *testing.T) {
	repo := newMockRepository()
	sub := &mockSubscriber{}
	reg := NewRegistry(repo)
	reg.SetSubscriber(sub)
	ctx := context.Background()

	if err := reg.Add(ctx, Cube{ID: validID, Location: "living-room"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Remove(ctx, validID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if reg.Exists(validID) {
		t.Error("Exists() = true after Remove, want false")
	}
	if len(sub.unsubscribed) != 1 || sub.unsubscribed[0] != validID {
		t.Errorf("unsubscribed = %v, want [%s]", sub.unsubscribed, validID)
	}
}

func TestRegistryRemoveNotFound(t *testing.T) {
	reg := NewRegistry(newMockRepository())

	err := reg.Remove(context.Background(), validID)
	if !errors.Is(err, ErrCubeNotFound) {
		t.Errorf("Remove() error = %v, want ErrCubeNotFound", err)
	}
}

func TestRegistryClear(t *testing.T) {
	repo := newMockRepository()
	sub := &mockSubscriber{}
	reg := NewRegistry(repo)
	reg.SetSubscriber(sub)
	ctx := context.Background()

	ids := []string{
		"550e8400-e29b-41d4-a716-446655440001",
		"550e8400-e29b-41d4-a716-446655440002",
	}
	for _, id := range ids {
		if err := reg.Add(ctx, Cube{ID: id, Location: "lab"}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	if err := reg.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if reg.Count() != 0 {
		t.Errorf("Count() = %d after Clear, want 0", reg.Count())
	}
	if len(sub.unsubscribed) != 2 {
		t.Errorf("unsubscribed %d cubes, want 2", len(sub.unsubscribed))
	}
}

func TestRegistryRefreshCache(t *testing.T) {
	repo := newMockRepository()
	ctx := context.Background()

	// Seed the repository directly, bypassing the registry
	if err := repo.Create(ctx, &Cube{ID: validID, Location: "attic"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	reg := NewRegistry(repo)
	if reg.Exists(validID) {
		t.Error("Exists() = true before RefreshCache, want false")
	}

	if err := reg.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}
	if !reg.Exists(validID) {
		t.Error("Exists() = false after RefreshCache, want true")
	}
}
