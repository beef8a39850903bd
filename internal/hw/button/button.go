package button

import (
	"context"
	"time"

	"github.com/cjeanneret/photobooth/internal/debug"
	"github.com/cjeanneret/photobooth/internal/hw/gpio"
)

// Button is a momentary push button wired between a GPIO input and GND.
// The pin uses the internal pull-up, so it reads HIGH when released
// and LOW while pressed.
type Button struct {
	gpio     gpio.Driver
	pin      int
	debounce time.Duration // presses closer than this to the previous one are ignored
	poll     time.Duration // sampling interval
}

// New configures pin as a pulled-up input.
func New(g gpio.Driver, pin int, debounce, poll time.Duration) *Button {
	_ = g.SetupPin(pin, gpio.Input)
	_ = g.SetPull(pin, gpio.PullUp)
	if poll <= 0 {
		poll = 20 * time.Millisecond
	}
	return &Button{
		gpio:     g,
		pin:      pin,
		debounce: debounce,
		poll:     poll,
	}
}

// Watch samples the pin until ctx is done and calls onPress on every
// HIGH -> LOW edge outside the debounce window. onPress runs on the
// watcher goroutine and should return quickly.
func (b *Button) Watch(ctx context.Context, onPress func()) error {
	debug.Verbose("Button: watching pin %d (poll=%v, debounce=%v)", b.pin, b.poll, b.debounce)

	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	last := gpio.High
	var lastPress time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		level, err := b.gpio.ReadPin(b.pin)
		if err != nil {
			return err
		}
		pressed := last == gpio.High && level == gpio.Low
		last = level
		if !pressed {
			continue
		}
		now := time.Now()
		if !lastPress.IsZero() && now.Sub(lastPress) < b.debounce {
			debug.Trace("Button: press on pin %d ignored (debounce)", b.pin)
			continue
		}
		lastPress = now
		debug.Live("Button pressed (pin %d)", b.pin)
		onPress()
	}
}
