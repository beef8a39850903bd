package camera

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/cjeanneret/photobooth/internal/debug"
)

// Palette holds the fill colors PatternSource cycles through, one per grab.
var Palette = []color.RGBA{
	{R: 0xe5, G: 0x39, B: 0x35, A: 0xff},
	{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff},
	{R: 0x43, G: 0xa0, B: 0x47, A: 0xff},
	{R: 0xfd, G: 0xd8, B: 0x35, A: 0xff},
	{R: 0x8e, G: 0x24, B: 0xaa, A: 0xff},
	{R: 0x00, G: 0xac, B: 0xc1, A: 0xff},
}

// PatternSource is a synthetic camera for development and tests.
// Each grab returns a frame filled with the next Palette color and a
// black 1px outline, so composed layouts are easy to inspect.
type PatternSource struct {
	mu     sync.Mutex
	width  int
	height int
	grabs  int
}

// NewPatternSource creates a pattern camera with the given live size.
func NewPatternSource(width, height int) *PatternSource {
	return &PatternSource{width: width, height: height}
}

// SetSize changes the live dimensions used by the next grabs.
// A zero size makes the source yield empty frames.
func (p *PatternSource) SetSize(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width = width
	p.height = height
}

// Grabs returns how many frames were taken so far.
func (p *PatternSource) Grabs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grabs
}

func (p *PatternSource) Grab(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	p.mu.Lock()
	w, h, n := p.width, p.height, p.grabs
	p.grabs++
	p.mu.Unlock()

	if w <= 0 || h <= 0 {
		debug.Verbose("Pattern camera: empty frame (%dx%d)", w, h)
		return Frame{Image: image.NewRGBA(image.Rect(0, 0, 0, 0)), Taken: time.Now()}, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := Palette[n%len(Palette)]
	black := color.RGBA{A: 0xff}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				img.SetRGBA(x, y, black)
				continue
			}
			img.SetRGBA(x, y, fill)
		}
	}
	return Frame{Image: img, Taken: time.Now()}, nil
}
