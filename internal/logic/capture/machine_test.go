package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cjeanneret/photobooth/internal/hw/camera"
	"github.com/cjeanneret/photobooth/internal/logic/compose"
	"github.com/cjeanneret/photobooth/internal/logic/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastTiming = Timing{First: 3, Next: 1, Tick: time.Millisecond}

// recorder collects events from the cycle goroutine.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds(k EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) countdown() []int {
	var out []int
	for _, e := range r.kinds(EventCountdown) {
		out = append(out, e.Remaining)
	}
	return out
}

// gatedSource blocks every grab until release is closed.
type gatedSource struct {
	inner   camera.Source
	release chan struct{}
}

func (g *gatedSource) Grab(ctx context.Context) (camera.Frame, error) {
	select {
	case <-ctx.Done():
		return camera.Frame{}, ctx.Err()
	case <-g.release:
	}
	return g.inner.Grab(ctx)
}

type failingSource struct{}

func (failingSource) Grab(context.Context) (camera.Frame, error) {
	return camera.Frame{}, camera.ErrUnavailable
}

type countingFlash struct{ n atomic.Int32 }

func (f *countingFlash) Fire() { f.n.Add(1) }

func decode(t *testing.T, a *Artifact) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(a.PNG))
	require.NoError(t, err)
	return img
}

func TestMachine_SingleEndToEnd(t *testing.T) {
	src := camera.NewPatternSource(64, 48)
	rec := &recorder{}
	m := NewMachine(src, WithTiming(fastTiming), WithObserver(rec.observe))

	s, err := m.Capture(context.Background(), Request{Template: layout.Single})
	require.NoError(t, err)

	require.NotNil(t, s.Artifact)
	assert.Equal(t, 64, s.Artifact.Width)
	assert.Equal(t, 48, s.Artifact.Height)
	assert.Equal(t, s.ID, s.Artifact.ID)
	assert.False(t, s.InProgress)
	assert.Empty(t, s.Frames, "frames are discarded once composed")
	assert.Equal(t, 1, src.Grabs())
	assert.Equal(t, []int{3, 2, 1}, rec.countdown())
	assert.Len(t, rec.kinds(EventPublished), 1)

	img := decode(t, s.Artifact)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, s.Artifact, m.Artifact())
}

func TestMachine_FourEndToEnd(t *testing.T) {
	src := camera.NewPatternSource(40, 30)
	rec := &recorder{}
	fl := &countingFlash{}
	m := NewMachine(src, WithTiming(fastTiming), WithObserver(rec.observe), WithFlash(fl))

	s, err := m.Capture(context.Background(), Request{Template: layout.Four, Border: layout.BorderFilm})
	require.NoError(t, err)

	assert.Equal(t, 4, src.Grabs())
	assert.Equal(t, int32(4), fl.n.Load())
	assert.Equal(t, []int{3, 2, 1, 1, 1, 1}, rec.countdown())
	assert.Len(t, rec.kinds(EventGrabbed), 4)
	assert.Len(t, rec.kinds(EventFlash), 4)

	require.NotNil(t, s.Artifact)
	assert.Equal(t, 80, s.Artifact.Width)
	assert.Equal(t, 60, s.Artifact.Height)
	assert.Equal(t, layout.BorderFilm, s.Artifact.Border)

	img := decode(t, s.Artifact)
	centers := []image.Point{{20, 15}, {60, 15}, {20, 45}, {60, 45}}
	for i, p := range centers {
		got := color.RGBAModel.Convert(img.At(p.X, p.Y)).(color.RGBA)
		assert.Equal(t, camera.Palette[i], got, "cell %d", i)
	}
}

func TestMachine_SecondTriggerIsNoop(t *testing.T) {
	gate := &gatedSource{inner: camera.NewPatternSource(16, 16), release: make(chan struct{})}
	m := NewMachine(gate, WithTiming(fastTiming))

	require.True(t, m.Trigger(context.Background(), Request{Template: layout.Single}))
	require.Eventually(t, func() bool { return m.State() == Grabbing }, time.Second, time.Millisecond)
	first := m.Session()

	assert.False(t, m.Trigger(context.Background(), Request{Template: layout.Four}))
	_, err := m.Capture(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrBusy)

	running := m.Session()
	assert.Equal(t, first.ID, running.ID)
	assert.Equal(t, layout.Single, running.Template)
	assert.True(t, running.InProgress)

	close(gate.release)
	m.Wait()

	s := m.Session()
	assert.Equal(t, first.ID, s.ID)
	require.NotNil(t, s.Artifact)
	assert.Equal(t, 16, s.Artifact.Width)
	assert.Equal(t, Idle, m.State())
}

func TestMachine_CancelDuringCountdown(t *testing.T) {
	src := camera.NewPatternSource(16, 16)
	rec := &recorder{}
	m := NewMachine(src, WithTiming(Timing{First: 3, Next: 1, Tick: time.Hour}), WithObserver(rec.observe))

	require.True(t, m.Trigger(context.Background(), Request{Template: layout.Two}))
	require.Eventually(t, func() bool { return m.Status().Remaining == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, Countdown, m.State())

	assert.True(t, m.Cancel())
	m.Wait()

	assert.Equal(t, Idle, m.State())
	assert.False(t, m.Cancel(), "nothing left to cancel")
	assert.Equal(t, 0, src.Grabs())
	s := m.Session()
	assert.False(t, s.InProgress)
	assert.Empty(t, s.Frames)
	assert.Nil(t, s.Artifact)
	assert.Len(t, rec.kinds(EventCancelled), 1)
}

func TestMachine_CancelReenablesTrigger(t *testing.T) {
	m := NewMachine(camera.NewPatternSource(16, 16), WithTiming(Timing{First: 3, Tick: time.Hour}))

	for i := 0; i < 2; i++ {
		require.True(t, m.Trigger(context.Background(), Request{}), "trigger %d", i)
		require.Eventually(t, func() bool { return m.State() == Countdown }, time.Second, time.Millisecond)
		require.True(t, m.Cancel())
		m.Wait()
		assert.Equal(t, Idle, m.State())
	}
}

func TestMachine_ParentContextCancels(t *testing.T) {
	m := NewMachine(camera.NewPatternSource(16, 16), WithTiming(Timing{First: 3, Tick: time.Hour}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Capture(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Idle, m.State())
}

func TestMachine_EmptyFrameFailsBackToIdle(t *testing.T) {
	src := camera.NewPatternSource(32, 24)
	rec := &recorder{}
	m := NewMachine(src, WithTiming(fastTiming), WithObserver(rec.observe))

	ok, err := m.Capture(context.Background(), Request{})
	require.NoError(t, err)

	src.SetSize(0, 0)
	s, err := m.Capture(context.Background(), Request{})
	assert.ErrorIs(t, err, compose.ErrEmptyFrame)
	assert.False(t, s.InProgress)
	assert.Empty(t, s.Frames)
	assert.Same(t, ok.Artifact, s.Artifact, "previous artifact survives a failed cycle")
	assert.Equal(t, Idle, m.State())
	assert.Len(t, rec.kinds(EventFailed), 1)
}

func TestMachine_SourceUnavailable(t *testing.T) {
	m := NewMachine(failingSource{}, WithTiming(fastTiming))

	_, err := m.Capture(context.Background(), Request{Template: layout.Four})
	assert.ErrorIs(t, err, camera.ErrUnavailable)
	assert.Equal(t, Idle, m.State())

	none := NewMachine(nil)
	_, err = none.Capture(context.Background(), Request{})
	assert.ErrorIs(t, err, camera.ErrUnavailable)
	assert.False(t, none.Trigger(context.Background(), Request{}))
}

func TestMachine_Defaults(t *testing.T) {
	m := NewMachine(camera.NewPatternSource(50, 50),
		WithTiming(fastTiming),
		WithDefaults(layout.Polaroid, layout.BorderVintage))

	s, err := m.Capture(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, layout.Polaroid, s.Template)
	assert.Equal(t, layout.BorderVintage, s.Border)
	assert.Equal(t, 50, s.Artifact.Width)
	assert.Equal(t, 59, s.Artifact.Height)
}

func TestMachine_ClearArtifact(t *testing.T) {
	m := NewMachine(camera.NewPatternSource(8, 8), WithTiming(fastTiming))
	assert.False(t, m.ClearArtifact())

	_, err := m.Capture(context.Background(), Request{})
	require.NoError(t, err)
	assert.True(t, m.ClearArtifact())
	assert.Nil(t, m.Artifact())
}

func TestMachine_ComposeOverride(t *testing.T) {
	boom := errors.New("boom")
	m := NewMachine(camera.NewPatternSource(8, 8),
		WithTiming(fastTiming),
		WithCompose(func(context.Context, []camera.Frame, layout.Template) (image.Image, error) {
			return nil, boom
		}))

	_, err := m.Capture(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Idle, m.State())
}

func TestRun_ReturnsNewSession(t *testing.T) {
	in := Session{ID: "s1", Template: layout.Two}
	out, err := Run(context.Background(), in, Deps{
		Source: camera.NewPatternSource(10, 10),
		Timing: Timing{Tick: time.Millisecond},
	})
	require.NoError(t, err)

	assert.Nil(t, in.Artifact, "input session is not mutated")
	require.NotNil(t, out.Artifact)
	assert.Equal(t, "s1", out.Artifact.ID)
	assert.Equal(t, 20, out.Artifact.Width)
	assert.Equal(t, 10, out.Artifact.Height)
	assert.Contains(t, out.Artifact.DataURL(), "data:image/png;base64,")
}

func TestRun_ZeroTicksSkipsCountdown(t *testing.T) {
	rec := &recorder{}
	_, err := Run(context.Background(), Session{Template: layout.Single}, Deps{
		Source:  camera.NewPatternSource(4, 4),
		Timing:  Timing{First: 0, Tick: time.Hour},
		Observe: rec.observe,
	})
	require.NoError(t, err)
	assert.Empty(t, rec.countdown())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "composing", Composing.String())
	assert.Equal(t, "unknown", State(42).String())
}
