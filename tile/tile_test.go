package tile

import (
	"image"
	"image/color"
	"io/ioutil"
	"log"
	"strings"
	"testing"

	"github.com/bodgit/overlay/coords"
	"github.com/bodgit/overlay/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = log.New(ioutil.Discard, "", 0)

func TestMask(t *testing.T) {
	assert.True(t, Mask(2, 2, 5))
	assert.False(t, Mask(0, 0, 5))
	assert.True(t, Mask(2, 0, 5))
	assert.False(t, Mask(1, 1, 5))

	for _, factor := range []int{1, 3, 5, 7} {
		n := 0
		for y := 0; y < factor; y++ {
			for x := 0; x < factor; x++ {
				if Mask(x, y, factor) {
					n++
				}
			}
		}
		assert.Equal(t, 2*factor-1, n, "factor %d", factor)
		assert.True(t, Mask(Center(factor), Center(factor), factor))
	}

	// Absolute coordinates repeat per block
	assert.Equal(t, Mask(2, 0, 5), Mask(12, 5, 5))
}

func TestAnchor(t *testing.T) {
	tests := []struct {
		name   string
		anchor Anchor
		dx, dy int
	}{
		{"top-left", TopLeft, 0, 0},
		{"top", Top, 2, 0},
		{"top-right", TopRight, 4, 0},
		{"left", Left, 0, 1},
		{"center", Middle, 2, 1},
		{"right", Right, 4, 1},
		{"bottom-left", BottomLeft, 0, 3},
		{"bottom", Bottom, 2, 3},
		{"bottom-right", BottomRight, 4, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAnchor(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.anchor, a)
			assert.Equal(t, tt.name, a.String())

			// 5 by 4 image
			dx, dy := a.Offset(5, 4)
			assert.Equal(t, tt.dx, dx)
			assert.Equal(t, tt.dy, dy)
		})
	}

	_, err := ParseAnchor("sideways")
	assert.Equal(t, ErrBadAnchor, err)
	a, err := ParseAnchor("")
	require.NoError(t, err)
	assert.Equal(t, TopLeft, a)
}

func scenarioImage() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	m.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	m.SetNRGBA(1, 0, color.NRGBA{222, 250, 206, 255})
	m.SetNRGBA(0, 1, color.NRGBA{0, 0, 0, 255})
	m.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})
	return m
}

func TestSplitScenario(t *testing.T) {
	res, err := Split(scenarioImage(), coords.Point{TileX: 10, TileY: 10, PixelX: 500, PixelY: 500}, TopLeft, 5, discard)
	require.NoError(t, err)

	assert.Equal(t, coords.Point{TileX: 10, TileY: 10, PixelX: 500, PixelY: 500}, res.Origin)
	assert.Equal(t, 4, res.PixelCount)
	assert.Equal(t, 3, res.RequiredPixelCount)
	assert.Equal(t, 1, res.MarkerPixelCount)
	assert.Equal(t, map[palette.Key]int{
		palette.KeyOf(255, 255, 255): 2,
		palette.KeyOf(0, 0, 0):       1,
	}, res.Palette)

	require.Len(t, res.Tiles, 1)
	require.Len(t, res.Buffers, 1)
	m := res.Tiles["0010,0010,500,500"]
	require.NotNil(t, m)
	assert.Equal(t, image.Rect(0, 0, 10, 10), m.Rect)

	// Block centres carry the color
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, m.NRGBAAt(2, 2))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, m.NRGBAAt(2, 7))
	// Cross arms too, corners do not
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, m.NRGBAAt(2, 0))
	assert.Equal(t, color.NRGBA{}, m.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, m.NRGBAAt(1, 1))

	// Marker block is a faint checkerboard everywhere
	assert.Equal(t, color.NRGBA{0, 0, 0, MarkerAlpha}, m.NRGBAAt(5, 1))
	assert.Equal(t, color.NRGBA{255, 255, 255, MarkerAlpha}, m.NRGBAAt(5, 0))
	assert.Equal(t, color.NRGBA{255, 255, 255, MarkerAlpha}, m.NRGBAAt(7, 2))
}

func TestSplitIdempotent(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			c := palette.Colors[1+(x*y)%63].RGB
			m.SetNRGBA(x, y, color.NRGBA{c[0], c[1], c[2], uint8(x * 6)})
		}
	}

	p := coords.Point{TileX: 100, TileY: 200, PixelX: 980, PixelY: 990}
	a, err := Split(m, p, Middle, 3, discard)
	require.NoError(t, err)
	b, err := Split(m, p, Middle, 3, discard)
	require.NoError(t, err)

	assert.Equal(t, a.Buffers, b.Buffers)
	assert.Equal(t, a.Origin, b.Origin)
}

func TestSplitAcrossTiles(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	for i := 3; i < len(m.Pix); i += 4 {
		m.Pix[i-3] = 0xff
		m.Pix[i] = 0xff
	}

	res, err := Split(m, coords.Point{TileX: 5, TileY: 5, PixelX: 990, PixelY: 995}, TopLeft, 3, discard)
	require.NoError(t, err)

	want := map[string]image.Rectangle{
		"0005,0005,990,995": image.Rect(0, 0, 30, 15),
		"0006,0005,000,995": image.Rect(0, 0, 60, 15),
		"0005,0006,990,000": image.Rect(0, 0, 30, 45),
		"0006,0006,000,000": image.Rect(0, 0, 60, 45),
	}
	require.Len(t, res.Tiles, len(want))
	for k, r := range want {
		require.Contains(t, res.Tiles, k)
		assert.Equal(t, r, res.Tiles[k].Rect, k)
		assert.Contains(t, res.Buffers, k)
	}
	assert.Equal(t, 600, res.RequiredPixelCount)
	assert.Equal(t, 600, res.Palette[palette.Other])
}

func TestSplitAnchorWraps(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 5, 1))

	res, err := Split(m, coords.Point{TileX: 0, TileY: 3, PixelX: 1, PixelY: 0}, TopRight, 1, discard)
	require.NoError(t, err)

	assert.Equal(t, coords.Point{TileX: coords.GridTiles - 1, TileY: 3, PixelX: 997, PixelY: 0}, res.Origin)

	keys := make([]string, 0, len(res.Tiles))
	for k := range res.Tiles {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"2047,0003,997,000", "0000,0003,000,000"}, keys)
}

func TestSplitErrors(t *testing.T) {
	m := scenarioImage()

	_, err := Split(m, coords.Point{}, TopLeft, 4, discard)
	assert.Equal(t, ErrBadFactor, err)
	_, err = Split(m, coords.Point{}, TopLeft, 0, discard)
	assert.Equal(t, ErrBadFactor, err)

	_, err = Split(m, coords.Point{}, BottomLeft, 3, discard)
	assert.Equal(t, ErrOutOfBounds, err)
	_, err = Split(m, coords.Point{TileX: 0, TileY: coords.GridTiles - 1, PixelX: 0, PixelY: coords.TileSize - 1}, TopLeft, 3, discard)
	assert.Equal(t, ErrOutOfBounds, err)

	_, err = Split(image.NewNRGBA(image.Rect(0, 0, 0, 3)), coords.Point{}, TopLeft, 3, discard)
	assert.Error(t, err)
}

type unreadable struct {
	*image.NRGBA
}

func (unreadable) At(x, y int) color.Color {
	panic("pixel data unavailable")
}

func TestInspectFallback(t *testing.T) {
	_, err := inspect(unreadable{scenarioImage()})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unable to read pixels"))

	c, err := inspect(scenarioImage())
	require.NoError(t, err)
	assert.Equal(t, 3, c.required)
	assert.Equal(t, 1, c.marker)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func splitTiles(t *testing.T, m image.Image, p coords.Point, factor int) (int, []*image.NRGBA) {
	t.Helper()

	res, err := Split(m, p, TopLeft, factor, discard)
	require.NoError(t, err)

	edge := 0
	var tiles []*image.NRGBA
	for _, tm := range res.Tiles {
		edge = gcd(gcd(edge, tm.Rect.Dx()), tm.Rect.Dy())
		tiles = append(tiles, tm)
	}
	return edge, tiles
}

func TestDetectFactor(t *testing.T) {
	sparse := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	sparse.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})

	solid := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			solid.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
		}
	}

	tables := []struct {
		name   string
		m      image.Image
		p      coords.Point
		factor int
	}{
		{"scenario", scenarioImage(), coords.Point{TileX: 10, TileY: 10, PixelX: 500, PixelY: 500}, 5},
		{"solid", solid, coords.Point{}, 1},
		{"solid upsampled", solid, coords.Point{}, 3},
		{"sparse", sparse, coords.Point{}, 3},
		{"across tiles", solid, coords.Point{PixelX: 998, PixelY: 999}, 3},
		{"large", scenarioImage(), coords.Point{}, 9},
	}

	for _, table := range tables {
		edge, tiles := splitTiles(t, table.m, table.p, table.factor)
		f, ok := DetectFactor(edge, tiles)
		assert.True(t, ok, table.name)
		assert.Equal(t, table.factor, f, table.name)
	}
}

func TestDetectFactorMarkersOnly(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	m.SetNRGBA(0, 0, color.NRGBA{222, 250, 206, 255})

	edge, tiles := splitTiles(t, m, coords.Point{}, 3)
	_, ok := DetectFactor(edge, tiles)
	assert.False(t, ok)

	_, ok = DetectFactor(0, nil)
	assert.False(t, ok)
}
