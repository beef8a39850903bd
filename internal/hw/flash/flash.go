package flash

import (
	"sync/atomic"
	"time"

	"github.com/cjeanneret/photobooth/internal/debug"
	"github.com/cjeanneret/photobooth/internal/hw/gpio"
)

// Flash is a fire-and-forget light pulse played when a frame is grabbed.
// Fire must not block and has no effect on the capture sequence.
type Flash interface {
	Fire()
}

// Nop is a Flash that does nothing (no flash wired).
type Nop struct{}

func (Nop) Fire() {}

// GPIOFlash drives an LED (or a relay) on one output pin:
// HIGH for the pulse duration, then back to LOW.
type GPIOFlash struct {
	gpio     gpio.Driver
	pin      int
	duration time.Duration
	firing   atomic.Bool
}

// NewGPIOFlash configures pin as output, initially LOW (off).
func NewGPIOFlash(g gpio.Driver, pin int, duration time.Duration) *GPIOFlash {
	_ = g.SetupPin(pin, gpio.Output)
	_ = g.WritePin(pin, gpio.Low)
	if duration <= 0 {
		duration = 120 * time.Millisecond
	}
	return &GPIOFlash{
		gpio:     g,
		pin:      pin,
		duration: duration,
	}
}

// Fire starts a pulse in the background. A pulse already in flight
// absorbs the call.
func (f *GPIOFlash) Fire() {
	if !f.firing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer f.firing.Store(false)
		if err := f.gpio.WritePin(f.pin, gpio.High); err != nil {
			debug.Error(err)
			return
		}
		time.Sleep(f.duration)
		if err := f.gpio.WritePin(f.pin, gpio.Low); err != nil {
			debug.Error(err)
		}
	}()
}
