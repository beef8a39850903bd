package gpio

import (
	"sync"

	"github.com/cjeanneret/photobooth/internal/debug"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
)

// Pull selects the internal resistor of an input pin.
type Pull int

const (
	PullOff Pull = iota
	PullUp
	PullDown
)

// Driver defines the abstract interface for controlling GPIOs.
// This allows plugging in a real Raspberry Pi implementation
// or a mock for development on PC.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	SetPull(pin int, pull Pull) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	Close() error
}

// MockDriver keeps pin levels in memory. Used for development on PC
// and in tests, where SetInput simulates a button press.
type MockDriver struct {
	mu     sync.Mutex
	levels map[int]Level
	writes int
}

// NewDriver creates a GPIO driver based on the chosen mode.
// If mock is true, returns a MockDriver (for dev/test).
// If mock is false, returns a real RPiDriver (for Raspberry Pi).
func NewDriver(mock bool) (Driver, error) {
	if mock {
		debug.Info("Using MOCK GPIO driver (development mode)")
		return NewMockDriver(), nil
	}
	return NewRPiRealDriver()
}

// NewMockDriver returns a mock driver with every pin LOW.
func NewMockDriver() *MockDriver {
	return &MockDriver{levels: make(map[int]Level)}
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	return nil
}

// SetPull applies the pull resistor by driving the idle level of the pin.
func (m *MockDriver) SetPull(pin int, pull Pull) error {
	debug.GPIO("SetPull", pin, pull)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	switch pull {
	case PullUp:
		m.levels[pin] = High
	case PullDown:
		m.levels[pin] = Low
	}
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.levels[pin] = level
	m.writes++
	return nil
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	return m.levels[pin], nil
}

// SetInput forces the level seen by ReadPin, e.g. LOW for a pressed button.
func (m *MockDriver) SetInput(pin int, level Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.levels[pin] = level
}

// Writes returns the number of WritePin calls.
func (m *MockDriver) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	return nil
}

func (m *MockDriver) init() {
	if m.levels == nil {
		m.levels = make(map[int]Level)
	}
}
