/*
Package diff compares template tiles against the live canvas.

Only the centre cell of every upsampled template block is authoritative; it
is compared with the canvas pixel it covers and classified as painted, wrong
or not yet painted. The engine also builds the overlay shown on top of the
canvas tile.
*/
package diff

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/bodgit/overlay/coords"
	"github.com/bodgit/overlay/palette"
	"github.com/bodgit/overlay/tile"
)

// PresentAlpha is the alpha from which a pixel counts as present, both for
// template samples and for canvas pixels.
const PresentAlpha = 64

const (
	// DefaultExampleCapacity is the default bound on wrong pixel examples
	// kept per color
	DefaultExampleCapacity = 100
	// FullExampleCapacity keeps practically every example
	FullExampleCapacity = 1000000
)

// Config configures an Engine.
type Config struct {
	TileSize        int
	ExampleCapacity int
	// Seed seeds the example sampler, each tile derives its own source
	// from it so results are reproducible
	Seed int64
}

// Layer is one template chunk covering part of a tile.
type Layer struct {
	// Key is the storage key of the owning template
	Key     string
	SortID  int
	Enabled bool
	Factor  int
	// Offset is the pixel offset of the chunk within the tile
	Offset image.Point
	Bitmap *image.NRGBA
}

// Request is everything needed to diff one tile.
type Request struct {
	TileX, TileY int
	// Live is the canvas tile, nil if the tile is blank
	Live *image.NRGBA
	// Layers must be sorted by ascending SortID
	Layers     []Layer
	Disabled   map[palette.Key]bool
	ShowErrors bool
}

// Result is the outcome of diffing a tile. Image is nil when no enabled
// layer applies and the canvas tile should be shown untouched.
type Result struct {
	Image image.Image
	Stats *Stats
}

// Engine diffs tiles.
type Engine struct {
	cfg Config
}

// New returns a new Engine.
func New(cfg Config) *Engine {
	if cfg.TileSize <= 0 {
		cfg.TileSize = coords.TileSize
	}
	if cfg.ExampleCapacity < 0 {
		cfg.ExampleCapacity = 0
	}
	return &Engine{
		cfg: cfg,
	}
}

func livePixel(m *image.NRGBA, x, y int) color.NRGBA {
	if m == nil || !(image.Point{x, y}).In(m.Rect) {
		return color.NRGBA{}
	}
	return m.NRGBAAt(x, y)
}

// Diff classifies every sample of every layer and builds the overlay.
func (e *Engine) Diff(req *Request) *Result {
	ts := e.cfg.TileSize
	stats := newStats()
	rng := rand.New(rand.NewSource(e.cfg.Seed ^ int64(req.TileX)<<32 ^ int64(req.TileY)))

	painted := make([]bool, ts*ts)
	var flags []image.Point
	enabled := false

	for _, l := range req.Layers {
		if l.Bitmap == nil || l.Factor < 1 {
			continue
		}
		if l.Enabled {
			enabled = true
		}

		tpl := stats.template(l.Key)
		f, c := l.Factor, tile.Center(l.Factor)
		b := l.Bitmap.Rect

		for sy := b.Min.Y + c; sy < b.Max.Y; sy += f {
			gy := l.Offset.Y + (sy-b.Min.Y)/f
			if gy < 0 || gy >= ts {
				continue
			}
			for sx := b.Min.X + c; sx < b.Max.X; sx += f {
				gx := l.Offset.X + (sx-b.Min.X)/f
				if gx < 0 || gx >= ts {
					continue
				}

				s := l.Bitmap.NRGBAAt(sx, sy)
				lv := livePixel(req.Live, gx, gy)

				if s.A < PresentAlpha {
					// Marker samples want the canvas left blank
					if req.ShowErrors && s.A > 0 && lv.A >= PresentAlpha {
						stats.Stray++
						flags = append(flags, image.Pt(gx, gy))
					}
					continue
				}

				stats.Required++
				tpl.Required++
				cs := stats.color(palette.KeyOf(s.R, s.G, s.B), e.cfg.ExampleCapacity)
				i := gy*ts + gx

				switch {
				case lv.A < PresentAlpha:
					stats.Unpainted++
					cs.Missing++
				case lv.R == s.R && lv.G == s.G && lv.B == s.B:
					stats.Painted++
					cs.Painted++
					if l.Enabled {
						cs.PaintedEnabled++
					}
					tpl.Painted++
					painted[i] = true
				default:
					stats.Wrong++
					cs.Missing++
					if req.ShowErrors {
						flags = append(flags, image.Pt(gx, gy))
					}
					if !painted[i] {
						p := coords.Point{TileX: req.TileX, TileY: req.TileY, PixelX: gx, PixelY: gy}
						cs.Examples.Add(p, rng)
						if l.Enabled {
							cs.EnabledExamples.Add(p, rng)
						}
					}
				}
			}
		}
	}

	res := &Result{
		Stats: stats,
	}
	if enabled {
		res.Image = e.composite(req, flags)
	}

	return res
}
