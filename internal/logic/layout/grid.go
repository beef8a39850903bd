package layout

import (
	"image"
	"math"
)

// PolaroidBandRatio is the height of the blank band below a polaroid
// frame, relative to the frame height.
const PolaroidBandRatio = 0.18

// GridPlan describes the composed canvas of a multi template.
type GridPlan struct {
	Columns    int // frames per row
	Rows       int // ceil(frames / columns)
	CellWidth  int // every cell is exactly one frame wide
	CellHeight int // and one frame high, no gutters
	Width      int // Columns * CellWidth
	Height     int // Rows * CellHeight
}

// PlanGrid calculates the canvas for t with cells of cellW x cellH.
func PlanGrid(t Template, cellW, cellH int) GridPlan {
	cols := t.PerRow
	if cols < 1 {
		cols = 1
	}
	frames := t.Frames
	if frames < 1 {
		frames = 1
	}
	rows := (frames + cols - 1) / cols

	return GridPlan{
		Columns:    cols,
		Rows:       rows,
		CellWidth:  cellW,
		CellHeight: cellH,
		Width:      cols * cellW,
		Height:     rows * cellH,
	}
}

// Cell returns the rectangle of frame idx, placed row-major.
func (g GridPlan) Cell(idx int) image.Rectangle {
	col := idx % g.Columns
	row := idx / g.Columns
	x := col * g.CellWidth
	y := row * g.CellHeight
	return image.Rect(x, y, x+g.CellWidth, y+g.CellHeight)
}

// PolaroidSize returns the canvas of a polaroid print for a w x h frame.
func PolaroidSize(w, h int) (int, int) {
	return w, h + int(math.Round(float64(h)*PolaroidBandRatio))
}

// OutputSize returns the composed dimensions of t for w x h frames.
func OutputSize(t Template, w, h int) (int, int) {
	switch t.Kind {
	case KindPolaroid:
		return PolaroidSize(w, h)
	case KindMulti:
		g := PlanGrid(t, w, h)
		return g.Width, g.Height
	default:
		return w, h
	}
}
