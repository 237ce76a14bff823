package palette

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

const (
	snapColors = 64
	// Pixels below this alpha become transparent when snapped
	snapAlpha = 0x80
)

// Snap returns a copy of m where every opaque pixel is replaced by the
// nearest palette color. The image is first reduced with a median cut so the
// nearest color search only runs once per quantized color. Marker pixels are
// kept as they are.
func Snap(m image.Image, premium bool) *image.NRGBA {
	b := m.Bounds()
	target := Palette(premium)

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, snapColors), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	nearest := make([]color.NRGBA, len(pm.Palette))
	for i, c := range pm.Palette {
		nearest[i] = target[target.Index(c)].(color.NRGBA)
	}

	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			switch {
			case c.A < snapAlpha:
				continue
			case IsMarker(c.R, c.G, c.B):
				c.A = 0xff
			default:
				c = nearest[pm.ColorIndexAt(x, y)]
			}
			out.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}

	return out
}
