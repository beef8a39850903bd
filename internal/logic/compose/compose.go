// Package compose turns the frames of one capture into the finished
// print image. Borders are not drawn here: they are presentation
// metadata that travel next to the artifact.
package compose

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/cjeanneret/photobooth/internal/debug"
	"github.com/cjeanneret/photobooth/internal/hw/camera"
	"github.com/cjeanneret/photobooth/internal/logic/layout"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrFrameCount is returned when the frame set does not match the template.
	ErrFrameCount = errors.New("wrong number of frames")
	// ErrEmptyFrame is returned when a frame has a zero dimension.
	ErrEmptyFrame = errors.New("empty frame")
)

// Compose lays out frames according to t:
//   - single: frame 0 unchanged
//   - polaroid: frame 0 on a white canvas with a blank band below it
//   - multi: frames in a row-major grid, one frame per cell, no gutters
//
// The composite is returned only once every frame has been drawn.
func Compose(ctx context.Context, frames []camera.Frame, t layout.Template) (image.Image, error) {
	if len(frames) != t.Frames {
		return nil, fmt.Errorf("%w: template %s needs %d, got %d", ErrFrameCount, t, t.Frames, len(frames))
	}
	for i, f := range frames {
		if f.Empty() {
			return nil, fmt.Errorf("%w: frame %d is %dx%d", ErrEmptyFrame, i+1, f.Width(), f.Height())
		}
	}

	switch t.Kind {
	case layout.KindSingle:
		return frames[0].Image, nil
	case layout.KindPolaroid:
		return polaroid(frames[0]), nil
	case layout.KindMulti:
		return grid(ctx, frames, t)
	default:
		return nil, fmt.Errorf("%w: kind %q", layout.ErrUnknownTemplate, t.Kind)
	}
}

func polaroid(f camera.Frame) image.Image {
	w, h := f.Width(), f.Height()
	pw, ph := layout.PolaroidSize(w, h)
	debug.Verbose("Compose: polaroid %dx%d -> %dx%d", w, h, pw, ph)

	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	src := f.Image
	xdraw.Draw(dst, image.Rect(0, 0, w, h), src, src.Bounds().Min, xdraw.Over)
	return dst
}

func grid(ctx context.Context, frames []camera.Frame, t layout.Template) (image.Image, error) {
	// Cells take the size of the first frame; later frames that differ
	// (live resolution changed mid-sequence) are scaled into their cell.
	plan := layout.PlanGrid(t, frames[0].Width(), frames[0].Height())
	debug.PrintStruct("Compose grid plan", plan)

	dst := image.NewRGBA(image.Rect(0, 0, plan.Width, plan.Height))

	// Cells are disjoint, so each frame can be drawn on its own goroutine.
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cell := plan.Cell(i)
			src := f.Image
			sb := src.Bounds()
			if sb.Dx() == cell.Dx() && sb.Dy() == cell.Dy() {
				xdraw.Draw(dst, cell, src, sb.Min, xdraw.Src)
			} else {
				debug.Verbose("Compose: scaling frame %d from %dx%d to %dx%d", i+1, sb.Dx(), sb.Dy(), cell.Dx(), cell.Dy())
				xdraw.ApproxBiLinear.Scale(dst, cell, src, sb, xdraw.Src, nil)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}
