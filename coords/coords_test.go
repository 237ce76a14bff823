package coords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	// One pixel spans 360/WorldSize degrees of longitude, latitude pixels
	// are never taller than that.
	resolution := 360.0 / WorldSize

	tests := []struct {
		lat, lon float64
	}{
		{0, 0},
		{35.6812, 139.7671},
		{-33.8568, 151.2153},
		{51.5007, -0.1246},
		{-54.8019, -68.3030},
		{84.9, 179.999},
		{-84.9, -179.999},
	}

	for _, tt := range tests {
		p := GeoToTile(tt.lat, tt.lon)
		require.True(t, p.Valid(), "%+v", p)

		lat, lon := TileToGeo(p)
		assert.InDelta(t, tt.lat, lat, resolution)
		assert.InDelta(t, tt.lon, lon, resolution)

		assert.Equal(t, p, GeoToTile(lat, lon))
	}
}

func TestTileToGeoCorners(t *testing.T) {
	lat, lon := TileToGeo(Point{})
	assert.InDelta(t, -180, lon, 0.001)
	assert.InDelta(t, MaxLatitude, lat, 0.001)

	lat, lon = TileToGeo(Point{GridTiles / 2, GridTiles / 2, 0, 0})
	assert.InDelta(t, 0, lon, 0.001)
	assert.InDelta(t, 0, lat, 0.001)
}

func TestGeoToTileSaturates(t *testing.T) {
	assert.Equal(t, 0, GeoToTile(90, 0).TileY)
	assert.Equal(t, Point{TileX: 1024, TileY: 0}, GeoToTile(100, 0))
	p := GeoToTile(-90, 0)
	assert.Equal(t, GridTiles-1, p.TileY)
	assert.Equal(t, TileSize-1, p.PixelY)
}

func TestGeoToTileWraps(t *testing.T) {
	assert.Equal(t, GeoToTile(10, -170), GeoToTile(10, 190))
}

func TestFromAbsolute(t *testing.T) {
	assert.Equal(t, Point{10, 10, 500, 500}, FromAbsolute(10500, 10500))
	assert.Equal(t, Point{-1, 0, 999, 0}, FromAbsolute(-1, 0))

	x, y := Point{3, 4, 5, 6}.Absolute()
	assert.Equal(t, 3005, x)
	assert.Equal(t, 4006, y)
}

func TestKey(t *testing.T) {
	p := Point{10, 7, 5, 999}
	assert.Equal(t, "0010,0007,005,999", Key(p))
	assert.Equal(t, "0010,0007", KeyPrefix(Key(p)))
	assert.Equal(t, "0010,0007", Prefix(10, 7))

	q, err := ParseKey(Key(p))
	require.NoError(t, err)
	assert.Equal(t, p, q)

	_, err = ParseKey("0010,0007")
	assert.Equal(t, ErrInvalidKey, err)
}

func TestParseCoords(t *testing.T) {
	tests := []struct {
		in   string
		want Point
		err  error
	}{
		{"1,2,3,4", Point{1, 2, 3, 4}, nil},
		{" 2047, 0, 999 ,0", Point{2047, 0, 999, 0}, nil},
		{"1,2,3", Point{}, ErrInvalidCoords},
		{"a,2,3,4", Point{}, ErrInvalidCoords},
		{"-1,2,3,4", Point{}, ErrInvalidCoords},
		{"2048,2,3,4", Point{}, ErrInvalidCoords},
		{"1,2,1000,4", Point{}, ErrInvalidCoords},
		{"", Point{}, ErrInvalidCoords},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParseCoords(tt.in)
			assert.Equal(t, tt.err, err)
			assert.Equal(t, tt.want, p)
		})
	}

	assert.Equal(t, "1,2,3,4", Point{1, 2, 3, 4}.String())
}
