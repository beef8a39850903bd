package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the composition policy of a template.
type Kind string

const (
	KindSingle   Kind = "single"
	KindPolaroid Kind = "polaroid"
	KindMulti    Kind = "multi"
)

// MaxFrames bounds the number of frames of a multi template.
const MaxFrames = 12

// DefaultPerRow is the number of columns of a multi template when the
// name does not give one.
const DefaultPerRow = 2

// ErrUnknownTemplate is returned when a template name cannot be parsed.
var ErrUnknownTemplate = errors.New("unknown template")

// Template determines how many frames a capture takes and how they
// are laid out in the composed image.
type Template struct {
	Kind   Kind
	Frames int // frames to capture before composing
	PerRow int // grid columns (multi only)
}

var (
	Single   = Template{Kind: KindSingle, Frames: 1, PerRow: 1}
	Polaroid = Template{Kind: KindPolaroid, Frames: 1, PerRow: 1}
	Two      = Template{Kind: KindMulti, Frames: 2, PerRow: 2}
	Four     = Template{Kind: KindMulti, Frames: 4, PerRow: 2}
)

// Multi returns an n-frame grid template with perRow columns.
func Multi(n, perRow int) (Template, error) {
	if n < 1 || n > MaxFrames {
		return Template{}, fmt.Errorf("%w: multi template needs 1-%d frames, got %d", ErrUnknownTemplate, MaxFrames, n)
	}
	if perRow < 1 || perRow > n {
		return Template{}, fmt.Errorf("%w: multi template needs 1-%d columns, got %d", ErrUnknownTemplate, n, perRow)
	}
	return Template{Kind: KindMulti, Frames: n, PerRow: perRow}, nil
}

// ParseTemplate accepts single, polaroid, two (two-up), four (four-up),
// multi-N and multi-NxP. Empty means single.
func ParseTemplate(s string) (Template, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "single":
		return Single, nil
	case "polaroid":
		return Polaroid, nil
	case "two", "two-up":
		return Two, nil
	case "four", "four-up":
		return Four, nil
	}

	rest, ok := strings.CutPrefix(name, "multi-")
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, s)
	}
	count, cols, hasCols := strings.Cut(rest, "x")
	n, err := strconv.Atoi(count)
	if err != nil {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, s)
	}
	perRow := DefaultPerRow
	if hasCols {
		if perRow, err = strconv.Atoi(cols); err != nil {
			return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, s)
		}
	} else if n < perRow {
		perRow = n
	}
	return Multi(n, perRow)
}

// Name returns the canonical template name.
func (t Template) Name() string {
	switch t.Kind {
	case KindSingle, KindPolaroid:
		return string(t.Kind)
	}
	switch t {
	case Two:
		return "two"
	case Four:
		return "four"
	}
	if t.PerRow == DefaultPerRow || (t.Frames < DefaultPerRow && t.PerRow == t.Frames) {
		return fmt.Sprintf("multi-%d", t.Frames)
	}
	return fmt.Sprintf("multi-%dx%d", t.Frames, t.PerRow)
}

func (t Template) String() string {
	return t.Name()
}

// MarshalText encodes the template as its canonical name.
func (t Template) MarshalText() ([]byte, error) {
	return []byte(t.Name()), nil
}

// UnmarshalText parses a template name.
func (t *Template) UnmarshalText(text []byte) error {
	parsed, err := ParseTemplate(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Templates lists the template names offered in the booth UI.
func Templates() []string {
	return []string{"single", "two", "four", "polaroid"}
}
