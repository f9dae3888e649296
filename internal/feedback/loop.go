package feedback

import (
	"fmt"
	"sync"

	"github.com/nerrad567/cube-core/internal/infrastructure/mqtt"
)

// LED actuator channels driven by the loop.
const (
	actuatorHue        = "hue"
	actuatorSaturation = "saturation"
	actuatorBrightness = "brightness"

	// Saturation and brightness are held constant; only hue tracks air quality.
	fixedSaturation = 100
	fixedBrightness = 100
)

// Publisher sends actuator commands. Satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by the Loop.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// cubeState holds the window and actuator context for one cube.
// The mutex serialises observe calls per cube so concurrent readings
// from the same device cannot interleave window updates and publishes.
type cubeState struct {
	mu       sync.Mutex
	win      window
	location string
}

// Loop maintains per-cube rolling windows and drives LED feedback.
//
// Observe is the single entry point: the ingestion pipeline calls it for
// every reading from the designated air-quality sensor. All methods are
// safe for concurrent use.
type Loop struct {
	publisher  Publisher
	thresholds []float64
	colors     []int
	qos        byte
	logger     Logger

	states  map[string]*cubeState
	stateMu sync.Mutex

	topics mqtt.Topics
}

// NewLoop creates a feedback loop with the given color bands.
//
// thresholds must be strictly ascending and the same length as colors.
// Band i covers means up to and including thresholds[i] and maps to hue
// colors[i].
func NewLoop(publisher Publisher, thresholds []float64, colors []int, qos byte) (*Loop, error) {
	if len(thresholds) != len(colors) {
		return nil, fmt.Errorf("%w: %d thresholds, %d colors",
			ErrBandMismatch, len(thresholds), len(colors))
	}
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("%w: at least one band required", ErrBandMismatch)
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return nil, fmt.Errorf("%w: %v", ErrBandOrder, thresholds)
		}
	}

	return &Loop{
		publisher:  publisher,
		thresholds: thresholds,
		colors:     colors,
		qos:        qos,
		logger:     noopLogger{},
		states:     make(map[string]*cubeState),
	}, nil
}

// SetLogger sets the logger for the loop.
func (l *Loop) SetLogger(logger Logger) {
	l.logger = logger
}

// Observe folds a reading into the cube's window and drives the LED.
//
// The window mean selects the first band it fits under; a mean beyond
// the last threshold publishes nothing. Publish failures are returned
// but leave the window updated - the reading was still observed.
func (l *Loop) Observe(cubeID, location string, value float64) error {
	state := l.state(cubeID, location)

	state.mu.Lock()
	defer state.mu.Unlock()

	state.win.Append(value)
	state.location = location
	mean := state.win.Mean()

	hue, ok := l.hueFor(mean)
	if !ok {
		l.logger.Debug("air quality beyond color scale, holding LED",
			"cube_id", cubeID, "mean", mean)
		return nil
	}

	return l.publishLED(cubeID, state.location, hue)
}

// Mean returns the current window mean for a cube.
// Returns ErrWindowNotFound before any reading has been observed.
func (l *Loop) Mean(cubeID string) (float64, error) {
	l.stateMu.Lock()
	state, ok := l.states[cubeID]
	l.stateMu.Unlock()

	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrWindowNotFound, cubeID)
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.win.Mean(), nil
}

// Forget drops the window for a removed cube.
func (l *Loop) Forget(cubeID string) {
	l.stateMu.Lock()
	delete(l.states, cubeID)
	l.stateMu.Unlock()
}

// Reset drops all windows. Used by the factory-reset flow.
func (l *Loop) Reset() {
	l.stateMu.Lock()
	l.states = make(map[string]*cubeState)
	l.stateMu.Unlock()
}

// state returns the cube's state, creating it on first sight.
func (l *Loop) state(cubeID, location string) *cubeState {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	s, ok := l.states[cubeID]
	if !ok {
		s = &cubeState{location: location}
		l.states[cubeID] = s
	}
	return s
}

// hueFor selects the hue for a window mean.
// Returns false when the mean is beyond the last threshold.
func (l *Loop) hueFor(mean float64) (int, bool) {
	for i, limit := range l.thresholds {
		if mean <= limit {
			return l.colors[i], true
		}
	}
	return 0, false
}

// publishLED sends the three actuator messages for one LED update.
// Saturation and brightness are constant; hue carries the band color.
// The optional transition-duration field is left out so the device
// applies its default ramp.
func (l *Loop) publishLED(cubeID, location string, hue int) error {
	channels := []struct {
		name  string
		value int
	}{
		{actuatorHue, hue},
		{actuatorSaturation, fixedSaturation},
		{actuatorBrightness, fixedBrightness},
	}

	for _, ch := range channels {
		topic := l.topics.Actuator(ch.name, cubeID, location)
		payload := fmt.Sprintf(`{"value":%d}`, ch.value)
		if err := l.publisher.Publish(topic, []byte(payload), l.qos, false); err != nil {
			return fmt.Errorf("publishing %s: %w", ch.name, err)
		}
	}
	return nil
}
