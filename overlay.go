/*
Package overlay is a library for tracking pixel art templates against a
tile-based canvas.

Templates are cut into canvas tiles when they are created. Whenever a canvas
tile is fetched the templates covering it are compared with the live pixels,
producing an overlay image and progress statistics. Results are cached per
tile until the enabled templates, the enabled colors or the canvas tile
itself change.
*/
package overlay

import (
	"github.com/bodgit/overlay/diff"
)

// Config holds the tunables of a Store.
type Config struct {
	// MaxFactor is the largest upsample factor new templates may use
	MaxFactor int
	// MaxCanvas is the largest edge, in pixels, of an upsampled tile
	MaxCanvas int
	// ExampleCapacity bounds the wrong pixel examples kept per color
	ExampleCapacity int
	// FullExamples keeps every wrong pixel example, ignoring
	// ExampleCapacity
	FullExamples bool
	// DecodedCacheSize is the number of decoded tiles kept around in
	// memory saving mode
	DecodedCacheSize int
	Seed             int64
	// Author identifies the user creating templates
	Author string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxFactor:        3,
		MaxCanvas:        16384,
		ExampleCapacity:  diff.DefaultExampleCapacity,
		DecodedCacheSize: 64,
		Author:           "0",
	}
}

// probeFactor picks the largest odd upsample factor no bigger than
// MaxFactor whose upsampled tile still fits within MaxCanvas.
func (c Config) probeFactor(tileSize int) int {
	f := c.MaxFactor
	if f%2 == 0 {
		f--
	}
	for f > 1 && tileSize*f > c.MaxCanvas {
		f -= 2
	}
	if f < 1 {
		f = 1
	}
	return f
}
