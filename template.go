package overlay

import (
	"fmt"
	"image"
	"sort"
	"strconv"
	"strings"

	"github.com/bodgit/overlay/bitmap"
	"github.com/bodgit/overlay/coords"
	"github.com/bodgit/overlay/diff"
	"github.com/bodgit/overlay/palette"
	"github.com/bodgit/overlay/tile"
)

// PaletteEntry counts the required pixels of one color in a template and
// records whether the color is shown.
type PaletteEntry struct {
	Count   int
	Enabled bool
}

// Template is an image placed on the canvas, held as upsampled tiles.
type Template struct {
	Name   string
	SortID int
	// AuthorID tells apart templates with the same SortID
	AuthorID string

	// Origin is the top-left corner of the template
	Origin   coords.Point
	TileSize int
	// Factor is fixed for the lifetime of the template, the tile bitmaps
	// are laid out with it
	Factor int

	Palette            map[palette.Key]*PaletteEntry
	PixelCount         int
	RequiredPixelCount int
	MarkerPixelCount   int

	Enabled bool
	// Version changes whenever the tile content changes
	Version string

	tiles    map[string]*bitmap.Slot
	prefixes map[string]struct{}
}

// StorageKey returns the stable identity of t.
func (t *Template) StorageKey() string {
	return fmt.Sprintf("%d %s", t.SortID, t.AuthorID)
}

func parseStorageKey(key string) (int, string, error) {
	fields := strings.SplitN(key, " ", 2)
	if len(fields) != 2 || fields[1] == "" {
		return 0, "", fmt.Errorf("invalid storage key %q", key)
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, "", fmt.Errorf("invalid storage key %q", key)
	}
	return id, fields[1], nil
}

// TileKeys returns the sorted keys of every tile of t.
func (t *Template) TileKeys() []string {
	keys := make([]string, 0, len(t.tiles))
	for k := range t.tiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Touches reports whether t has a tile within the canvas tile with the
// given key or key prefix.
func (t *Template) Touches(key string) bool {
	_, ok := t.prefixes[coords.KeyPrefix(key)]
	return ok
}

func (t *Template) chunks(prefix string) []string {
	var keys []string
	for k := range t.tiles {
		if coords.KeyPrefix(k) == prefix {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// setTiles replaces the tiles of t. bitmaps may be missing entries, those
// tiles start released.
func (t *Template) setTiles(buffers map[string][]byte, bitmaps map[string]*image.NRGBA) {
	t.tiles = make(map[string]*bitmap.Slot, len(buffers))
	t.prefixes = make(map[string]struct{})
	for k, b := range buffers {
		t.tiles[k] = bitmap.NewSlot(b, bitmaps[k])
		t.prefixes[coords.KeyPrefix(k)] = struct{}{}
	}
	t.Version = versionStamp(buffers)
}

func (t *Template) release() {
	for _, s := range t.tiles {
		s.Release()
	}
}

// recount rebuilds the pixel counts and palette of t from its decoded tile
// bitmaps by reading the centre sample of every block.
func (t *Template) recount(bitmaps map[string]*image.NRGBA) {
	t.Palette = make(map[palette.Key]*PaletteEntry)
	t.PixelCount, t.RequiredPixelCount, t.MarkerPixelCount = 0, 0, 0

	f, c := t.Factor, tile.Center(t.Factor)
	for _, m := range bitmaps {
		b := m.Rect
		for y := b.Min.Y + c; y < b.Max.Y; y += f {
			for x := b.Min.X + c; x < b.Max.X; x += f {
				t.PixelCount++
				s := m.NRGBAAt(x, y)
				switch {
				case s.A >= diff.PresentAlpha:
					t.RequiredPixelCount++
					k := palette.KeyOf(s.R, s.G, s.B)
					e, ok := t.Palette[k]
					if !ok {
						e = &PaletteEntry{Enabled: true}
						t.Palette[k] = e
					}
					e.Count++
				case s.A > 0:
					t.MarkerPixelCount++
				}
			}
		}
	}
}
