package camera

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrUnavailable reports that the live source cannot deliver frames
// (device missing, permission denied, capture command failing).
var ErrUnavailable = errors.New("camera unavailable")

// Frame is one raw raster snapshot taken from the live source.
type Frame struct {
	Image image.Image
	Taken time.Time
}

// Width returns the frame width in pixels (0 for an empty frame).
func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels (0 for an empty frame).
func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool {
	return f.Width() == 0 || f.Height() == 0
}

// Source is the high-level interface used by the rest of the application.
// It represents an abstract live camera, regardless of how frames are
// obtained (synthetic pattern, external capture tool, etc.).
type Source interface {
	// Grab captures exactly one frame at the current live dimensions.
	Grab(ctx context.Context) (Frame, error)
}
