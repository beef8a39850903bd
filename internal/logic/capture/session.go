package capture

import (
	"time"

	"github.com/cjeanneret/photobooth/internal/hw/camera"
	"github.com/cjeanneret/photobooth/internal/logic/compose"
	"github.com/cjeanneret/photobooth/internal/logic/layout"
)

// Request selects the template and border of a capture. A zero
// Template means the machine default.
type Request struct {
	Template layout.Template
	Border   layout.Border
}

// Session is the state of one capture-through-publish cycle. It is a
// value: Run takes one and returns the next, the Machine keeps the
// latest.
type Session struct {
	ID         string
	Template   layout.Template
	Border     layout.Border
	Frames     []camera.Frame // owned by the cycle until composed
	InProgress bool
	Artifact   *Artifact // last published artifact, kept until replaced or cleared
}

// Artifact is a finished, composed image. It is never mutated.
type Artifact struct {
	ID        string
	PNG       []byte
	Width     int
	Height    int
	Template  layout.Template
	Border    layout.Border
	CreatedAt time.Time
}

// DataURL returns the artifact as an embedded PNG payload.
func (a *Artifact) DataURL() string {
	return compose.DataURL(compose.MediaTypePNG, a.PNG)
}
