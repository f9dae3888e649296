package ingest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/cube-core/internal/infrastructure/mqtt"
)

// Broker is the slice of the MQTT client the subscription manager needs.
// Satisfied by *mqtt.Client.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// SubscriptionManager keeps MQTT subscriptions in lockstep with registry
// membership and system state.
//
// Two families of subscriptions are tracked: the lifecycle wildcard
// (cube/#) and one sensor wildcard per registered cube. All operations
// are idempotent - subscribing a cube that is already subscribed or
// unsubscribing one that is not is a no-op, so callers never need to
// consult the current state first.
//
// All methods are safe for concurrent use.
type SubscriptionManager struct {
	broker  Broker
	qos     byte
	handler mqtt.MessageHandler
	topics  mqtt.Topics

	mu        sync.Mutex
	cubes     map[string]bool
	lifecycle bool
}

// NewSubscriptionManager creates a manager delivering all matched
// messages to handler at the given QoS.
func NewSubscriptionManager(broker Broker, qos byte, handler mqtt.MessageHandler) *SubscriptionManager {
	return &SubscriptionManager{
		broker:  broker,
		qos:     qos,
		handler: handler,
		cubes:   make(map[string]bool),
	}
}

// SubscribeLifecycle subscribes the cube/# wildcard. Idempotent.
func (m *SubscriptionManager) SubscribeLifecycle() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lifecycle {
		return nil
	}
	if err := m.broker.Subscribe(m.topics.CubeLifecycle(), m.qos, m.handler); err != nil {
		return fmt.Errorf("subscribing lifecycle: %w", err)
	}
	m.lifecycle = true
	return nil
}

// UnsubscribeLifecycle drops the cube/# wildcard. Idempotent.
func (m *SubscriptionManager) UnsubscribeLifecycle() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.lifecycle {
		return nil
	}
	if err := m.broker.Unsubscribe(m.topics.CubeLifecycle()); err != nil {
		return fmt.Errorf("unsubscribing lifecycle: %w", err)
	}
	m.lifecycle = false
	return nil
}

// SubscribeCube subscribes the sensor wildcard for one cube. Idempotent.
func (m *SubscriptionManager) SubscribeCube(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cubes[id] {
		return nil
	}
	if err := m.broker.Subscribe(m.topics.CubeSensorData(id), m.qos, m.handler); err != nil {
		return fmt.Errorf("subscribing cube %s: %w", id, err)
	}
	m.cubes[id] = true
	return nil
}

// UnsubscribeCube drops the sensor wildcard for one cube. Idempotent.
func (m *SubscriptionManager) UnsubscribeCube(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cubes[id] {
		return nil
	}
	if err := m.broker.Unsubscribe(m.topics.CubeSensorData(id)); err != nil {
		return fmt.Errorf("unsubscribing cube %s: %w", id, err)
	}
	delete(m.cubes, id)
	return nil
}

// SubscribeCubes subscribes a set of cubes, continuing past failures.
// The returned error joins every individual failure.
func (m *SubscriptionManager) SubscribeCubes(ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := m.SubscribeCube(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UnsubscribeAllCubes drops every per-cube subscription.
func (m *SubscriptionManager) UnsubscribeAllCubes() error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.cubes))
	for id := range m.cubes {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.UnsubscribeCube(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HasCube reports whether a cube's sensor topics are subscribed.
func (m *SubscriptionManager) HasCube(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cubes[id]
}

// CubeCount returns the number of per-cube subscriptions held.
func (m *SubscriptionManager) CubeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cubes)
}

// LifecycleActive reports whether the lifecycle wildcard is subscribed.
func (m *SubscriptionManager) LifecycleActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lifecycle
}

