package camera

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cjeanneret/photobooth/internal/hw/gpio"
)

type pinWrite struct {
	pin   int
	level gpio.Level
}

// recordingDriver records output writes in order.
type recordingDriver struct {
	mu     sync.Mutex
	writes []pinWrite
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error { return nil }
func (d *recordingDriver) SetPull(pin int, pull gpio.Pull) error     { return nil }
func (d *recordingDriver) ReadPin(pin int) (gpio.Level, error)       { return gpio.High, nil }
func (d *recordingDriver) Close() error                              { return nil }

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = append(d.writes, pinWrite{pin, level})
	return nil
}

func (d *recordingDriver) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = nil
}

func (d *recordingDriver) snapshot() []pinWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]pinWrite(nil), d.writes...)
}

func TestRemoteShutter_InitializedHigh(t *testing.T) {
	drv := &recordingDriver{}
	NewRemoteShutter(drv, 23, 24, 0, 0, nil)

	want := []pinWrite{{23, gpio.High}, {24, gpio.High}}
	got := drv.snapshot()
	if len(got) != len(want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRemoteShutter_GrabSequence(t *testing.T) {
	drv := &recordingDriver{}
	r := NewRemoteShutter(drv, 23, 24, time.Millisecond, time.Millisecond, NewPatternSource(40, 30))
	drv.reset()

	f, err := r.Grab(context.Background())
	if err != nil {
		t.Fatalf("Grab: %v", err)
	}
	if f.Width() != 40 || f.Height() != 30 {
		t.Errorf("frame = %dx%d, want 40x30", f.Width(), f.Height())
	}

	want := []pinWrite{{23, gpio.Low}, {24, gpio.Low}, {24, gpio.High}, {23, gpio.High}}
	got := drv.snapshot()
	if len(got) != len(want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRemoteShutter_CancelReleasesLines(t *testing.T) {
	drv := &recordingDriver{}
	r := NewRemoteShutter(drv, 23, 24, time.Hour, time.Hour, NewPatternSource(8, 8))
	drv.reset()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := r.Grab(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Grab err = %v, want DeadlineExceeded", err)
	}

	got := drv.snapshot()
	want := []pinWrite{{23, gpio.Low}, {24, gpio.High}, {23, gpio.High}}
	if len(got) != len(want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRemoteShutter_NoFetchIsUnavailable(t *testing.T) {
	r := NewRemoteShutter(&recordingDriver{}, 23, 24, 0, 0, nil)
	if _, err := r.Grab(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Grab err = %v, want ErrUnavailable", err)
	}
}
