/*
Package coords converts between tile grid coordinates and geographic
coordinates.

The canvas is a square Web Mercator world map made of GridTiles by GridTiles
tiles, each TileSize by TileSize pixels, so the whole world is WorldSize pixels
wide and high. A position is addressed either as an absolute pixel or as a tile
index plus a pixel offset within that tile.
*/
package coords

import (
	"math"
)

const (
	// GridTiles is the number of tiles along each axis of the world grid
	GridTiles = 2048
	// TileSize is the edge length of a tile in pixels
	TileSize = 1000
	// WorldSize is the edge length of the world in pixels
	WorldSize = GridTiles * TileSize

	// MaxLatitude is the latitude at which the projection is clamped
	MaxLatitude = 85.05112877980659
)

// Point is a position on the grid expressed as a tile index and a pixel
// offset within that tile.
type Point struct {
	TileX, TileY   int
	PixelX, PixelY int
}

// Absolute returns the absolute pixel position of p within the world.
func (p Point) Absolute() (int, int) {
	return p.TileX*TileSize + p.PixelX, p.TileY*TileSize + p.PixelY
}

// FromAbsolute splits an absolute pixel position into a tile index and a
// pixel offset. Negative positions are floored towards the previous tile.
func FromAbsolute(x, y int) Point {
	return Point{
		TileX:  floorDiv(x, TileSize),
		TileY:  floorDiv(y, TileSize),
		PixelX: floorMod(x, TileSize),
		PixelY: floorMod(y, TileSize),
	}
}

// Valid reports whether p lies within the world grid.
func (p Point) Valid() bool {
	return p.TileX >= 0 && p.TileX < GridTiles &&
		p.TileY >= 0 && p.TileY < GridTiles &&
		p.PixelX >= 0 && p.PixelX < TileSize &&
		p.PixelY >= 0 && p.PixelY < TileSize
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// TileToGeo returns the latitude and longitude of the centre of the pixel
// addressed by p.
func TileToGeo(p Point) (float64, float64) {
	x, y := p.Absolute()

	lon := 360*(float64(x)+0.5)/WorldSize - 180

	n := (float64(y) + 0.5) / WorldSize
	lat := (2*math.Atan(math.Exp(math.Pi*(1-2*n))) - math.Pi/2) * 180 / math.Pi

	return lat, lon
}

// GeoToTile returns the pixel containing the given latitude and longitude.
// Latitudes beyond the projection limit saturate to the first or last row
// and longitudes wrap around the horizontal seam.
func GeoToTile(lat, lon float64) Point {
	lat = math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))

	fx := (lon + 180) / 360 * WorldSize
	x := floorMod(int(math.Floor(fx)), WorldSize)

	rad := lat * math.Pi / 180
	fy := (1 - math.Log(math.Tan(math.Pi/4+rad/2))/math.Pi) / 2 * WorldSize
	y := int(math.Floor(fy))
	if y < 0 {
		y = 0
	}
	if y >= WorldSize {
		y = WorldSize - 1
	}

	return FromAbsolute(x, y)
}
