package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/cjeanneret/photobooth/internal/debug"
	"github.com/cjeanneret/photobooth/internal/hw/camera"
	"github.com/cjeanneret/photobooth/internal/hw/flash"
	"github.com/cjeanneret/photobooth/internal/logic/compose"
	"github.com/cjeanneret/photobooth/internal/logic/layout"
)

// Timing holds the countdown lengths, in ticks.
type Timing struct {
	First int           // before the first (or only) frame
	Next  int           // before each following frame of a multi template
	Tick  time.Duration // duration of one countdown unit
}

// DefaultTiming is 3 ticks, then 1 tick between frames, 1s per tick.
var DefaultTiming = Timing{First: 3, Next: 1, Tick: time.Second}

// ticksBefore returns the countdown length before frame idx.
func (t Timing) ticksBefore(idx int) int {
	if idx == 0 {
		return t.First
	}
	return t.Next
}

// ComposeFunc builds the finished image from a full frame set.
type ComposeFunc func(ctx context.Context, frames []camera.Frame, t layout.Template) (image.Image, error)

// Deps are the collaborators of one cycle.
type Deps struct {
	Source  camera.Source
	Flash   flash.Flash // optional
	Timing  Timing
	Compose ComposeFunc // optional, compose.Compose by default
	Observe Observer    // optional
}

func (d Deps) withDefaults() Deps {
	if d.Flash == nil {
		d.Flash = flash.Nop{}
	}
	if d.Compose == nil {
		d.Compose = compose.Compose
	}
	if d.Observe == nil {
		d.Observe = func(Event) {}
	}
	if d.Timing.Tick <= 0 {
		d.Timing.Tick = DefaultTiming.Tick
	}
	return d
}

// cycle carries the bookkeeping of one Run call.
type cycle struct {
	deps  Deps
	s     Session
	state State
	start time.Time
}

func (c *cycle) emit(e Event) {
	e.SessionID = c.s.ID
	e.Template = c.s.Template.Name()
	e.State = c.state
	c.deps.Observe(e)
}

func (c *cycle) enter(next State) {
	debug.Transition(c.state.String(), next.String())
	c.state = next
	c.emit(Event{Kind: EventState})
}

// Run performs one capture cycle on s:
//
//	Countdown -> Grabbing, repeated once per template frame
//	Composing -> Published
//
// On success the returned session holds the new Artifact and no frames.
// On failure or cancellation the frames are discarded, the previous
// artifact is kept, and the error is returned. In both cases the
// returned session is no longer in progress.
func Run(ctx context.Context, s Session, d Deps) (Session, error) {
	if d.Source == nil {
		s.InProgress = false
		return s, camera.ErrUnavailable
	}
	if s.Template.Frames < 1 {
		s.Template = layout.Single
	}

	c := &cycle{deps: d.withDefaults(), s: s, state: Idle, start: time.Now()}
	c.s.InProgress = true
	c.s.Frames = make([]camera.Frame, 0, s.Template.Frames)

	debug.Section("Capture " + c.s.Template.Name())
	debug.Value("Session", c.s.ID)

	total := c.s.Template.Frames
	for i := 0; i < total; i++ {
		c.enter(Countdown)
		if err := c.countdown(ctx, c.deps.Timing.ticksBefore(i)); err != nil {
			return c.fail(err)
		}

		c.enter(Grabbing)
		f, err := c.deps.Source.Grab(ctx)
		if err != nil {
			return c.fail(fmt.Errorf("grab frame %d/%d: %w", i+1, total, err))
		}
		c.s.Frames = append(c.s.Frames, f)
		c.deps.Flash.Fire()
		c.emit(Event{Kind: EventFlash})
		debug.Shot(i+1, total, f.Width(), f.Height())
		c.emit(Event{Kind: EventGrabbed, Index: i + 1, Of: total, Width: f.Width(), Height: f.Height()})
	}

	c.enter(Composing)
	img, err := c.deps.Compose(ctx, c.s.Frames, c.s.Template)
	if err != nil {
		return c.fail(fmt.Errorf("compose: %w", err))
	}
	data, err := compose.EncodePNG(img)
	if err != nil {
		return c.fail(fmt.Errorf("encode: %w", err))
	}

	b := img.Bounds()
	c.s.Artifact = &Artifact{
		ID:        c.s.ID,
		PNG:       data,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Template:  c.s.Template,
		Border:    c.s.Border,
		CreatedAt: time.Now(),
	}
	c.s.Frames = nil
	c.s.InProgress = false

	c.enter(Published)
	debug.Info("Published %dx%d %s (%d bytes)", b.Dx(), b.Dy(), c.s.Template.Name(), len(data))
	c.emit(Event{Kind: EventPublished, Width: b.Dx(), Height: b.Dy(), Elapsed: time.Since(c.start)})
	return c.s, nil
}

// countdown suspends for n ticks, announcing n, n-1, ..., 1.
func (c *cycle) countdown(ctx context.Context, n int) error {
	timer := time.NewTimer(c.deps.Timing.Tick)
	defer timer.Stop()

	for remaining := n; remaining > 0; remaining-- {
		debug.Countdown(remaining)
		c.emit(Event{Kind: EventCountdown, Remaining: remaining})

		timer.Reset(c.deps.Timing.Tick)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ctx.Err()
}

func (c *cycle) fail(err error) (Session, error) {
	c.s.Frames = nil
	c.s.InProgress = false

	kind := EventFailed
	if errors.Is(err, context.Canceled) {
		kind = EventCancelled
		debug.Live("Capture cancelled")
	} else {
		debug.Error(err)
	}
	c.emit(Event{Kind: kind, Error: err.Error(), Elapsed: time.Since(c.start)})
	return c.s, err
}
