package coords

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCoords is returned when user supplied coordinates are
	// malformed or lie outside of the grid
	ErrInvalidCoords = errors.New("coords: invalid coordinates")
	// ErrInvalidKey is returned when a tile key cannot be parsed
	ErrInvalidKey = errors.New("coords: invalid tile key")
)

// Key returns the canonical tile key for p, the zero-padded tile X, tile Y,
// pixel X and pixel Y separated by commas.
func Key(p Point) string {
	return fmt.Sprintf("%04d,%04d,%03d,%03d", p.TileX, p.TileY, p.PixelX, p.PixelY)
}

// Prefix returns the tile part of a tile key for the given tile.
func Prefix(tileX, tileY int) string {
	return fmt.Sprintf("%04d,%04d", tileX, tileY)
}

// KeyPrefix returns the tile part of a tile key. Keys that are already just a
// prefix are returned unchanged.
func KeyPrefix(key string) string {
	if len(key) > 9 {
		return key[:9]
	}
	return key
}

func parseInts(s string, n int) ([]int, bool) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, false
	}
	v := make([]int, n)
	for i, f := range fields {
		x, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, false
		}
		v[i] = x
	}
	return v, true
}

// ParseKey parses a canonical tile key.
func ParseKey(key string) (Point, error) {
	v, ok := parseInts(key, 4)
	if !ok {
		return Point{}, ErrInvalidKey
	}
	p := Point{v[0], v[1], v[2], v[3]}
	if !p.Valid() {
		return Point{}, ErrInvalidKey
	}
	return p, nil
}

// ParseCoords parses user supplied "tx,ty,px,py" coordinates. Anything that
// is not four integers within the grid is rejected with ErrInvalidCoords.
func ParseCoords(s string) (Point, error) {
	v, ok := parseInts(s, 4)
	if !ok {
		return Point{}, ErrInvalidCoords
	}
	p := Point{v[0], v[1], v[2], v[3]}
	if !p.Valid() {
		return Point{}, ErrInvalidCoords
	}
	return p, nil
}

// String returns p in the "tx,ty,px,py" form accepted by ParseCoords.
func (p Point) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", p.TileX, p.TileY, p.PixelX, p.PixelY)
}
