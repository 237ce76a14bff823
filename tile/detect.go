package tile

import (
	"image"
)

// DetectFactor recovers the upsample factor of tiles produced by Split.
// edge must divide the width and height of every tile, the candidates are
// its odd divisors. The largest candidate for which every block looks like
// Split output wins. ok is false when no block holds a color sample, as
// then nothing tells the candidates apart.
func DetectFactor(edge int, tiles []*image.NRGBA) (factor int, ok bool) {
	if edge <= 0 || !hasSample(tiles) {
		return 0, false
	}

	for f := edge; f > 1; f-- {
		if f%2 == 0 || edge%f != 0 {
			continue
		}
		if matches(tiles, f) {
			return f, true
		}
	}

	return 1, true
}

func hasSample(tiles []*image.NRGBA) bool {
	for _, m := range tiles {
		for i := 3; i < len(m.Pix); i += 4 {
			if m.Pix[i] > MarkerAlpha {
				return true
			}
		}
	}
	return false
}

func matches(tiles []*image.NRGBA, f int) bool {
	for _, m := range tiles {
		if m.Rect.Dx()%f != 0 || m.Rect.Dy()%f != 0 {
			return false
		}
		b := m.Rect
		for by := b.Min.Y; by < b.Max.Y; by += f {
			for bx := b.Min.X; bx < b.Max.X; bx += f {
				if !block(m, bx, by, f) {
					return false
				}
			}
		}
	}
	return true
}

// block reports whether the f by f block at bx, by is a valid upsampled
// pixel: a cross of one color, a checkerboard or fully transparent.
func block(m *image.NRGBA, bx, by, f int) bool {
	c := Center(f)
	s := m.NRGBAAt(bx+c, by+c)

	for y := 0; y < f; y++ {
		for x := 0; x < f; x++ {
			p := m.NRGBAAt(bx+x, by+y)
			switch {
			case s.A > MarkerAlpha:
				if Mask(x, y, f) {
					if p != s {
						return false
					}
				} else if p.A != 0 {
					return false
				}
			case s.A > 0:
				if p.A == 0 || p.A > MarkerAlpha {
					return false
				}
			default:
				if p.A != 0 {
					return false
				}
			}
		}
	}

	return true
}
