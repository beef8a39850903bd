package camera

import (
	"context"
	"time"

	"github.com/cjeanneret/photobooth/internal/debug"
	"github.com/cjeanneret/photobooth/internal/hw/gpio"
)

// RemoteShutter fires a DSLR through its wired remote connector, then
// fetches the resulting still from Fetch (typically a CommandSource
// downloading the last shot). Both lines are active LOW:
//
//	FOCUS   LOW -> autofocus
//	SHUTTER LOW -> release
type RemoteShutter struct {
	gpio         gpio.Driver
	focusPin     int
	shutterPin   int
	focusDelay   time.Duration // time for autofocus
	shutterDelay time.Duration // shutter hold time
	Fetch        Source
}

// NewRemoteShutter configures both pins as outputs, initially HIGH (idle).
func NewRemoteShutter(g gpio.Driver, focusPin, shutterPin int, focusDelay, shutterDelay time.Duration, fetch Source) *RemoteShutter {
	_ = g.SetupPin(focusPin, gpio.Output)
	_ = g.SetupPin(shutterPin, gpio.Output)
	_ = g.WritePin(focusPin, gpio.High)
	_ = g.WritePin(shutterPin, gpio.High)

	return &RemoteShutter{
		gpio:         g,
		focusPin:     focusPin,
		shutterPin:   shutterPin,
		focusDelay:   focusDelay,
		shutterDelay: shutterDelay,
		Fetch:        fetch,
	}
}

// Grab triggers one shot and returns the fetched frame. Both lines are
// released even when ctx ends mid-sequence.
func (r *RemoteShutter) Grab(ctx context.Context) (Frame, error) {
	if err := r.shoot(ctx); err != nil {
		return Frame{}, err
	}
	if r.Fetch == nil {
		return Frame{}, ErrUnavailable
	}
	return r.Fetch.Grab(ctx)
}

func (r *RemoteShutter) shoot(ctx context.Context) (err error) {
	debug.Verbose("Camera: remote shot (focus=%d, shutter=%d)", r.focusPin, r.shutterPin)
	defer func() {
		if rerr := r.release(); err == nil {
			err = rerr
		}
	}()

	debug.GPIO("focus", r.focusPin, "LOW")
	if err := r.gpio.WritePin(r.focusPin, gpio.Low); err != nil {
		return err
	}
	if err := sleep(ctx, r.focusDelay); err != nil {
		return err
	}

	debug.GPIO("shutter", r.shutterPin, "LOW")
	if err := r.gpio.WritePin(r.shutterPin, gpio.Low); err != nil {
		return err
	}
	return sleep(ctx, r.shutterDelay)
}

// release returns SHUTTER then FOCUS to HIGH.
func (r *RemoteShutter) release() error {
	serr := r.gpio.WritePin(r.shutterPin, gpio.High)
	ferr := r.gpio.WritePin(r.focusPin, gpio.High)
	if serr != nil {
		return serr
	}
	return ferr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
