package tile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/bodgit/overlay/bitmap"
	"github.com/bodgit/overlay/coords"
	"github.com/bodgit/overlay/palette"
	xdraw "golang.org/x/image/draw"
)

var (
	// ErrBadFactor is returned for an upsample factor that is not a
	// positive odd number
	ErrBadFactor = errors.New("tile: upsample factor must be a positive odd number")
	// ErrOutOfBounds is returned when the anchored image does not fit
	// vertically within the grid
	ErrOutOfBounds = errors.New("tile: image does not fit within the grid")
	errEmpty       = errors.New("tile: image is empty")
)

// Result holds the tiles of a split template along with the pixel counts
// gathered from the source image.
type Result struct {
	// Origin is the normalized top-left corner of the image
	Origin coords.Point
	Factor int

	Tiles   map[string]*image.NRGBA
	Buffers map[string][]byte

	PixelCount         int
	RequiredPixelCount int
	MarkerPixelCount   int
	Palette            map[palette.Key]int
}

type counts struct {
	required int
	marker   int
	palette  map[palette.Key]int
}

// inspect counts the required and marker pixels of m and buckets the
// required ones by palette color.
func inspect(m image.Image) (c counts, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tile: unable to read pixels: %v", r)
		}
	}()

	c.palette = make(map[palette.Key]int)

	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			if p.A == 0 {
				continue
			}
			if palette.IsMarker(p.R, p.G, p.B) {
				c.marker++
				continue
			}
			c.required++
			c.palette[palette.KeyOf(p.R, p.G, p.B)]++
		}
	}

	return c, nil
}

// normalize copies m into an NRGBA image at the origin with every pixel
// either fully opaque or fully transparent.
func normalize(m image.Image) *image.NRGBA {
	n := bitmap.ToNRGBA(m)
	if n == m {
		n = image.NewNRGBA(n.Rect)
		copy(n.Pix, m.(*image.NRGBA).Pix)
	}
	for i := 0; i < len(n.Pix); i += 4 {
		if n.Pix[i+3] == 0 {
			n.Pix[i], n.Pix[i+1], n.Pix[i+2] = 0, 0, 0
		} else {
			n.Pix[i+3] = 0xff
		}
	}
	return n
}

// upsample scales the r portion of src by factor and applies the sampling
// mask and the marker checkerboard.
func upsample(src *image.NRGBA, r image.Rectangle, factor int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx()*factor, r.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Rect, src, r, xdraw.Src, nil)

	for y := 0; y < dst.Rect.Dy(); y++ {
		for x := 0; x < dst.Rect.Dx(); x++ {
			i := dst.PixOffset(x, y)
			p := dst.Pix[i : i+4 : i+4]
			switch {
			case p[3] == 0:
			case palette.IsMarker(p[0], p[1], p[2]):
				v := uint8(0)
				if (x+y)%2 == 1 {
					v = 0xff
				}
				p[0], p[1], p[2], p[3] = v, v, v, MarkerAlpha
			case !Mask(x, y, factor):
				p[0], p[1], p[2], p[3] = 0, 0, 0, 0
			}
		}
	}

	return dst
}

// Origin returns the normalized top-left corner of a w by h image placed
// with its anchor point at p. Positions left of the seam wrap around to the
// right edge of the grid.
func Origin(p coords.Point, anchor Anchor, w, h int) (coords.Point, error) {
	x, y := p.Absolute()
	dx, dy := anchor.Offset(w, h)
	x, y = x-dx, y-dy

	if x < 0 {
		x += coords.WorldSize
	}
	if y < 0 || y+h > coords.WorldSize {
		return coords.Point{}, ErrOutOfBounds
	}

	return coords.FromAbsolute(x, y), nil
}

// Split cuts m into tiles with its anchor point placed at p, upsampling each
// tile by factor. Chunks that cross the right edge of the grid continue from
// the left edge. If the source pixels cannot be read for counting, every
// pixel is assumed to be required and a warning is logged.
func Split(m image.Image, p coords.Point, anchor Anchor, factor int, logger *log.Logger) (*Result, error) {
	if factor < 1 || factor%2 == 0 {
		return nil, ErrBadFactor
	}

	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errEmpty
	}

	origin, err := Origin(p, anchor, w, h)
	if err != nil {
		return nil, err
	}

	c, err := inspect(m)
	if err != nil {
		logger.Printf("%v, treating every pixel as required", err)
		c = counts{
			required: w * h,
			palette:  make(map[palette.Key]int),
		}
	}

	res := &Result{
		Origin:             origin,
		Factor:             factor,
		Tiles:              make(map[string]*image.NRGBA),
		Buffers:            make(map[string][]byte),
		PixelCount:         w * h,
		RequiredPixelCount: c.required,
		MarkerPixelCount:   c.marker,
		Palette:            c.palette,
	}

	src := normalize(m)
	ox, oy := origin.Absolute()

	for y := 0; y < h; {
		ty, py := (oy+y)/coords.TileSize, (oy+y)%coords.TileSize
		ch := min(coords.TileSize-py, h-y)

		for x := 0; x < w; {
			tx, px := (ox+x)/coords.TileSize, (ox+x)%coords.TileSize
			cw := min(coords.TileSize-px, w-x)

			dst := upsample(src, image.Rect(x, y, x+cw, y+ch), factor)
			buf, err := bitmap.EncodeBytes(dst)
			if err != nil {
				return nil, err
			}

			key := coords.Key(coords.Point{
				TileX:  tx % coords.GridTiles,
				TileY:  ty,
				PixelX: px,
				PixelY: py,
			})
			res.Tiles[key] = dst
			res.Buffers[key] = buf

			x += cw
		}
		y += ch
	}

	return res, nil
}
