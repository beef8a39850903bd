// Package capture runs the timed capture cycle of the booth: countdown,
// frame grab (repeated per template frame), composition and publication.
package capture

import (
	"context"
	"errors"
	"sync"

	"github.com/cjeanneret/photobooth/internal/debug"
	"github.com/cjeanneret/photobooth/internal/hw/camera"
	"github.com/cjeanneret/photobooth/internal/hw/flash"
	"github.com/cjeanneret/photobooth/internal/logic/layout"
	"github.com/google/uuid"
)

// ErrBusy is returned when a cycle is requested while one is running.
var ErrBusy = errors.New("capture already in progress")

// Machine owns the single capture session and guarantees that at most
// one cycle runs at a time.
type Machine struct {
	source    camera.Source
	flash     flash.Flash
	timing    Timing
	compose   ComposeFunc
	observers []Observer
	template  layout.Template
	border    layout.Border

	mu        sync.Mutex
	state     State
	session   Session
	remaining int
	grabbed   int
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures a Machine.
type Option func(*Machine)

func WithTiming(t Timing) Option { return func(m *Machine) { m.timing = t } }

func WithFlash(f flash.Flash) Option { return func(m *Machine) { m.flash = f } }

// WithObserver adds an observer; observers are called in order.
func WithObserver(o Observer) Option {
	return func(m *Machine) { m.observers = append(m.observers, o) }
}

// WithCompose replaces the composition engine.
func WithCompose(fn ComposeFunc) Option { return func(m *Machine) { m.compose = fn } }

// WithDefaults sets the template and border used by requests that do
// not name one.
func WithDefaults(t layout.Template, b layout.Border) Option {
	return func(m *Machine) {
		m.template = t
		m.border = b
	}
}

func NewMachine(source camera.Source, opts ...Option) *Machine {
	m := &Machine{
		source:   source,
		flash:    flash.Nop{},
		timing:   DefaultTiming,
		template: layout.Single,
		border:   layout.BorderNone,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status is a snapshot of the machine.
type Status struct {
	State     State
	Session   Session
	Remaining int // countdown ticks left (Countdown only)
	Grabbed   int // frames grabbed so far in the running cycle
}

func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:     m.state,
		Session:   m.session,
		Remaining: m.remaining,
		Grabbed:   m.grabbed,
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a copy of the current session.
func (m *Machine) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Artifact returns the last published artifact, or nil.
func (m *Machine) Artifact() *Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Artifact
}

// ClearArtifact drops the last published artifact. It reports whether
// there was one.
func (m *Machine) ClearArtifact() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.session.Artifact != nil
	m.session.Artifact = nil
	return had
}

// Capture runs one cycle and waits for it. It returns ErrBusy, without
// touching the running session, when the machine is not Idle.
func (m *Machine) Capture(ctx context.Context, req Request) (Session, error) {
	cctx, s, err := m.begin(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return m.finish(cctx, s)
}

// Trigger starts a cycle in the background and returns immediately.
// It is a no-op returning false when a cycle is already running.
// ctx bounds the whole cycle, so it must outlive the caller's request.
func (m *Machine) Trigger(ctx context.Context, req Request) bool {
	cctx, s, err := m.begin(ctx, req)
	if err != nil {
		debug.Verbose("Capture trigger ignored: %v", err)
		return false
	}
	go func() {
		_, _ = m.finish(cctx, s)
	}()
	return true
}

// Cancel interrupts the running cycle. The machine returns to Idle and
// the frames grabbed so far are discarded. It reports whether a cycle
// was running.
func (m *Machine) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return false
	}
	m.cancel()
	return true
}

// Wait blocks until the running cycle, if any, has returned to Idle.
func (m *Machine) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (m *Machine) begin(ctx context.Context, req Request) (context.Context, Session, error) {
	if m.source == nil {
		return nil, Session{}, camera.ErrUnavailable
	}
	if req.Template.Frames < 1 {
		req.Template = m.template
	}
	if req.Border == "" {
		req.Border = m.border
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle || m.cancel != nil {
		return nil, Session{}, ErrBusy
	}

	cctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.state = Countdown
	m.remaining = 0
	m.grabbed = 0

	s := m.session
	s.ID = uuid.NewString()
	s.Template = req.Template
	s.Border = req.Border
	s.Frames = nil
	s.InProgress = true
	m.session = s
	return cctx, s, nil
}

func (m *Machine) finish(ctx context.Context, s Session) (Session, error) {
	out, err := Run(ctx, s, Deps{
		Source:  m.source,
		Flash:   m.flash,
		Timing:  m.timing,
		Compose: m.compose,
		Observe: m.observe,
	})

	m.mu.Lock()
	m.cancel()
	m.cancel = nil
	m.session = out
	last := m.state
	m.state = Idle
	m.remaining = 0
	done := m.done
	m.done = nil
	m.mu.Unlock()

	debug.Transition(last.String(), Idle.String())
	m.notify(Event{Kind: EventState, SessionID: out.ID, Template: out.Template.Name(), State: Idle})
	close(done)
	return out, err
}

func (m *Machine) observe(e Event) {
	m.mu.Lock()
	switch e.Kind {
	case EventState:
		m.state = e.State
	case EventCountdown:
		m.remaining = e.Remaining
	case EventGrabbed:
		m.grabbed = e.Index
		m.remaining = 0
	}
	m.mu.Unlock()
	m.notify(e)
}

func (m *Machine) notify(e Event) {
	for _, o := range m.observers {
		o(e)
	}
}
