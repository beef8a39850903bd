package capture

import "time"

// State is the position of the machine in a capture cycle.
type State int

const (
	Idle State = iota
	Countdown
	Grabbing
	Composing
	Published
)

var stateNames = [...]string{
	Idle:      "idle",
	Countdown: "countdown",
	Grabbing:  "grabbing",
	Composing: "composing",
	Published: "published",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EventKind tells observers what happened in a cycle.
type EventKind string

const (
	EventState     EventKind = "state"     // State holds the new state
	EventCountdown EventKind = "countdown" // Remaining ticks before the grab
	EventFlash     EventKind = "flash"     // a frame is being grabbed
	EventGrabbed   EventKind = "grabbed"   // Index of Of frames is in
	EventPublished EventKind = "published" // the artifact is available
	EventFailed    EventKind = "failed"    // Error describes why, frames discarded
	EventCancelled EventKind = "cancelled" // the cycle was cancelled, frames discarded
)

// Event is emitted by a cycle at each step. Observers run on the cycle
// goroutine and must not block.
type Event struct {
	Kind      EventKind     `json:"type"`
	SessionID string        `json:"session"`
	Template  string        `json:"template"`
	State     State         `json:"state"`
	Remaining int           `json:"remaining,omitempty"`
	Index     int           `json:"index,omitempty"`
	Of        int           `json:"of,omitempty"`
	Width     int           `json:"width,omitempty"`
	Height    int           `json:"height,omitempty"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ns,omitempty"`
}

// Observer receives cycle events.
type Observer func(Event)
