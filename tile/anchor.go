package tile

import (
	"errors"
)

// Anchor selects which point of an image is placed at the template origin.
type Anchor int

const (
	TopLeft Anchor = iota
	Top
	TopRight
	Left
	Middle
	Right
	BottomLeft
	Bottom
	BottomRight
)

var anchorNames = [...]string{
	"top-left",
	"top",
	"top-right",
	"left",
	"center",
	"right",
	"bottom-left",
	"bottom",
	"bottom-right",
}

// ErrBadAnchor is returned when an anchor name is not recognised
var ErrBadAnchor = errors.New("tile: unknown anchor")

// ParseAnchor returns the anchor with the given name, such as "top-left" or
// "center". An empty name is TopLeft.
func ParseAnchor(s string) (Anchor, error) {
	if s == "" {
		return TopLeft, nil
	}
	for i, n := range anchorNames {
		if n == s {
			return Anchor(i), nil
		}
	}
	return TopLeft, ErrBadAnchor
}

func (a Anchor) String() string {
	if a < TopLeft || a > BottomRight {
		return "unknown"
	}
	return anchorNames[a]
}

// Offset returns how far the anchor point lies from the top-left corner of
// a w by h image.
func (a Anchor) Offset(w, h int) (int, int) {
	col, row := int(a)%3, int(a)/3
	return (w - 1) * col / 2, (h - 1) * row / 2
}
