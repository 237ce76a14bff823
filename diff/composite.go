package diff

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/overlay/palette"
	"github.com/bodgit/overlay/tile"
	xdraw "golang.org/x/image/draw"
)

var errorColor = color.RGBA{0xff, 0x00, 0x00, 0xff}

// filter returns a copy of the layer bitmap holding only the blocks whose
// color is enabled. Marker blocks are always kept.
func filter(l Layer, disabled map[palette.Key]bool) *image.NRGBA {
	b := l.Bitmap.Rect
	out := image.NewNRGBA(b)
	f, c := l.Factor, tile.Center(l.Factor)

	for by := b.Min.Y; by < b.Max.Y; by += f {
		for bx := b.Min.X; bx < b.Max.X; bx += f {
			s := l.Bitmap.NRGBAAt(bx+c, by+c)
			if s.A == 0 {
				continue
			}
			marker := s.A < PresentAlpha
			if !marker && disabled[palette.KeyOf(s.R, s.G, s.B)] {
				continue
			}
			for y := by; y < by+f && y < b.Max.Y; y++ {
				for x := bx; x < bx+f && x < b.Max.X; x++ {
					if marker || tile.Mask(x-b.Min.X, y-b.Min.Y, f) {
						out.SetNRGBA(x, y, l.Bitmap.NRGBAAt(x, y))
					}
				}
			}
		}
	}

	return out
}

// composite draws the canvas tile scaled up to the largest layer factor and
// the enabled layers on top, the lowest SortID ending up topmost. Flagged
// pixels get their block corners painted in the error color.
func (e *Engine) composite(req *Request, flags []image.Point) *image.RGBA {
	factor := 1
	for _, l := range req.Layers {
		if l.Enabled && l.Factor > factor {
			factor = l.Factor
		}
	}

	ts := e.cfg.TileSize
	canvas := image.NewRGBA(image.Rect(0, 0, ts*factor, ts*factor))

	if req.Live != nil {
		lb := req.Live.Rect
		xdraw.NearestNeighbor.Scale(canvas, image.Rect(0, 0, lb.Dx()*factor, lb.Dy()*factor), req.Live, lb, xdraw.Src, nil)
	}

	for i := len(req.Layers) - 1; i >= 0; i-- {
		l := req.Layers[i]
		if !l.Enabled || l.Bitmap == nil || l.Factor < 1 {
			continue
		}

		src := l.Bitmap
		if len(req.Disabled) > 0 {
			src = filter(l, req.Disabled)
		}

		w, h := src.Rect.Dx()/l.Factor, src.Rect.Dy()/l.Factor
		dr := image.Rect(l.Offset.X, l.Offset.Y, l.Offset.X+w, l.Offset.Y+h)
		dr = image.Rectangle{dr.Min.Mul(factor), dr.Max.Mul(factor)}

		if l.Factor == factor {
			draw.Draw(canvas, dr, src, src.Rect.Min, draw.Over)
		} else {
			xdraw.NearestNeighbor.Scale(canvas, dr, src, src.Rect, xdraw.Over, nil)
		}
	}

	for _, p := range flags {
		x0, y0 := p.X*factor, p.Y*factor
		x1, y1 := x0+factor-1, y0+factor-1
		canvas.SetRGBA(x0, y0, errorColor)
		canvas.SetRGBA(x1, y0, errorColor)
		canvas.SetRGBA(x0, y1, errorColor)
		canvas.SetRGBA(x1, y1, errorColor)
	}

	return canvas
}
