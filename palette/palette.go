/*
Package palette implements the fixed color palette of the canvas.

Every paintable color has a numeric id, a premium flag and a name. Id 0 is the
transparent entry which is never painted; the canvas renders it when a pixel
is erased. Templates use a reserved marker color for pixels that should be
transparent in-game, and the registry indexes the transparent entry under that
marker color.
*/
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color describes one entry of the palette.
type Color struct {
	ID      int
	Premium bool
	Name    string
	RGB     [3]uint8
}

// Marker is the reserved "deface" color meaning transparent in-game.
var Marker = [3]uint8{222, 250, 206}

// Colors is the palette in id order.
var Colors = [...]Color{
	{0, false, "Transparent", [3]uint8{0, 0, 0}},
	{1, false, "Black", [3]uint8{0, 0, 0}},
	{2, false, "Dark Gray", [3]uint8{60, 60, 60}},
	{3, false, "Gray", [3]uint8{120, 120, 120}},
	{4, false, "Light Gray", [3]uint8{210, 210, 210}},
	{5, false, "White", [3]uint8{255, 255, 255}},
	{6, false, "Deep Red", [3]uint8{96, 0, 24}},
	{7, false, "Red", [3]uint8{237, 28, 36}},
	{8, false, "Orange", [3]uint8{255, 127, 39}},
	{9, false, "Gold", [3]uint8{246, 170, 9}},
	{10, false, "Yellow", [3]uint8{249, 221, 59}},
	{11, false, "Light Yellow", [3]uint8{255, 250, 188}},
	{12, false, "Dark Green", [3]uint8{14, 185, 104}},
	{13, false, "Green", [3]uint8{19, 230, 123}},
	{14, false, "Light Green", [3]uint8{135, 255, 94}},
	{15, false, "Dark Teal", [3]uint8{12, 129, 110}},
	{16, false, "Teal", [3]uint8{16, 174, 166}},
	{17, false, "Light Teal", [3]uint8{19, 225, 190}},
	{18, false, "Dark Blue", [3]uint8{40, 80, 158}},
	{19, false, "Blue", [3]uint8{64, 147, 228}},
	{20, false, "Cyan", [3]uint8{96, 247, 242}},
	{21, false, "Indigo", [3]uint8{107, 80, 246}},
	{22, false, "Light Indigo", [3]uint8{153, 177, 251}},
	{23, false, "Dark Purple", [3]uint8{120, 12, 153}},
	{24, false, "Purple", [3]uint8{170, 56, 185}},
	{25, false, "Light Purple", [3]uint8{224, 159, 249}},
	{26, false, "Dark Pink", [3]uint8{203, 0, 122}},
	{27, false, "Pink", [3]uint8{236, 31, 128}},
	{28, false, "Light Pink", [3]uint8{243, 141, 169}},
	{29, false, "Dark Brown", [3]uint8{104, 70, 52}},
	{30, false, "Brown", [3]uint8{149, 104, 42}},
	{31, false, "Beige", [3]uint8{248, 178, 119}},
	{32, true, "Medium Gray", [3]uint8{170, 170, 170}},
	{33, true, "Dark Red", [3]uint8{165, 14, 30}},
	{34, true, "Light Red", [3]uint8{250, 128, 114}},
	{35, true, "Dark Orange", [3]uint8{228, 92, 26}},
	{36, true, "Light Tan", [3]uint8{214, 181, 148}},
	{37, true, "Dark Goldenrod", [3]uint8{156, 132, 49}},
	{38, true, "Goldenrod", [3]uint8{197, 173, 49}},
	{39, true, "Light Goldenrod", [3]uint8{232, 212, 95}},
	{40, true, "Dark Olive", [3]uint8{74, 107, 58}},
	{41, true, "Olive", [3]uint8{90, 148, 74}},
	{42, true, "Light Olive", [3]uint8{132, 197, 115}},
	{43, true, "Dark Cyan", [3]uint8{15, 121, 159}},
	{44, true, "Light Cyan", [3]uint8{187, 250, 242}},
	{45, true, "Light Blue", [3]uint8{125, 199, 255}},
	{46, true, "Dark Indigo", [3]uint8{77, 49, 184}},
	{47, true, "Dark Slate Blue", [3]uint8{74, 66, 132}},
	{48, true, "Slate Blue", [3]uint8{122, 113, 196}},
	{49, true, "Light Slate Blue", [3]uint8{181, 174, 241}},
	{50, true, "Light Brown", [3]uint8{219, 164, 99}},
	{51, true, "Dark Beige", [3]uint8{209, 128, 81}},
	{52, true, "Light Beige", [3]uint8{255, 197, 165}},
	{53, true, "Dark Peach", [3]uint8{155, 82, 73}},
	{54, true, "Peach", [3]uint8{209, 128, 120}},
	{55, true, "Light Peach", [3]uint8{250, 182, 164}},
	{56, true, "Dark Tan", [3]uint8{123, 99, 82}},
	{57, true, "Tan", [3]uint8{156, 132, 107}},
	{58, true, "Dark Slate", [3]uint8{51, 57, 65}},
	{59, true, "Slate", [3]uint8{109, 117, 141}},
	{60, true, "Light Slate", [3]uint8{179, 185, 209}},
	{61, true, "Dark Stone", [3]uint8{109, 100, 63}},
	{62, true, "Stone", [3]uint8{148, 140, 107}},
	{63, true, "Light Stone", [3]uint8{205, 197, 158}},
}

// OtherColor is the synthetic entry used for any color not in the palette.
var OtherColor = Color{ID: -1, Name: "Other"}

var (
	// ErrUnknownColor is returned when a color key cannot be parsed
	ErrUnknownColor = errors.New("palette: unknown color")
)

var byRGB = func() map[[3]uint8]int {
	m := make(map[[3]uint8]int, len(Colors))
	// Transparent shares its RGB with black, only the marker maps to it
	for _, c := range Colors[1:] {
		m[c.RGB] = c.ID
	}
	m[Marker] = Colors[0].ID
	return m
}()

// Lookup returns the palette entry for the given RGB triple. The marker color
// returns the transparent entry.
func Lookup(r, g, b uint8) (Color, bool) {
	id, ok := byRGB[[3]uint8{r, g, b}]
	if !ok {
		return Color{}, false
	}
	return Colors[id], true
}

// IsMarker reports whether the RGB triple is the marker color.
func IsMarker(r, g, b uint8) bool {
	return [3]uint8{r, g, b} == Marker
}

// Key identifies a palette bucket; either a known paintable color or the
// catch-all Other bucket.
type Key int

// Other is the bucket for every color not in the palette.
const Other Key = -1

// KeyOf returns the bucket for the given RGB triple.
func KeyOf(r, g, b uint8) Key {
	if IsMarker(r, g, b) {
		return Other
	}
	if id, ok := byRGB[[3]uint8{r, g, b}]; ok {
		return Key(id)
	}
	return Other
}

// Known returns the key of the color with the given id.
func Known(id int) Key {
	return Key(id)
}

// Color returns the palette entry for k.
func (k Key) Color() Color {
	if k < 1 || int(k) >= len(Colors) {
		return OtherColor
	}
	return Colors[k]
}

// String returns the serialized form of k, "r,g,b" or "other".
func (k Key) String() string {
	if k < 1 || int(k) >= len(Colors) {
		return "other"
	}
	c := Colors[k].RGB
	return fmt.Sprintf("%d,%d,%d", c[0], c[1], c[2])
}

// ParseKey parses the serialized form of a key.
func ParseKey(s string) (Key, error) {
	if s == "other" {
		return Other, nil
	}
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return Other, ErrUnknownColor
	}
	var rgb [3]uint8
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return Other, ErrUnknownColor
		}
		rgb[i] = uint8(v)
	}
	id, ok := byRGB[rgb]
	if !ok || id == 0 {
		return Other, ErrUnknownColor
	}
	return Key(id), nil
}

// Palette returns the paintable colors as a color.Palette, optionally
// including the premium colors.
func Palette(premium bool) color.Palette {
	p := make(color.Palette, 0, len(Colors)-1)
	for _, c := range Colors[1:] {
		if c.Premium && !premium {
			continue
		}
		p = append(p, color.NRGBA{c.RGB[0], c.RGB[1], c.RGB[2], 0xff})
	}
	return p
}
