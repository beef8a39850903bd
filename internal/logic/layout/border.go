package layout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBorder is returned when a border name cannot be parsed.
var ErrUnknownBorder = errors.New("unknown border")

// Border is a cosmetic frame drawn around previews and thumbnails.
// It is presentation metadata only and never changes artifact pixels.
type Border string

const (
	BorderNone    Border = "none"
	BorderWhite   Border = "white"
	BorderRounded Border = "rounded"
	BorderFilm    Border = "film"
	BorderVintage Border = "vintage"
)

// Borders lists every border style.
func Borders() []Border {
	return []Border{BorderNone, BorderWhite, BorderRounded, BorderFilm, BorderVintage}
}

// ParseBorder accepts a border name or its CSS class ("border-film").
// Empty means none.
func ParseBorder(s string) (Border, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "border-")
	if name == "" {
		return BorderNone, nil
	}
	for _, b := range Borders() {
		if string(b) == name {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBorder, s)
}

// Class returns the presentation tag for the border, empty for none.
func (b Border) Class() string {
	if b == "" || b == BorderNone {
		return ""
	}
	return "border-" + string(b)
}
