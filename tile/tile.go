/*
Package tile splits template images into canvas tiles.

A template is cut along the tile grid so that every chunk lies within one
canvas tile. Each chunk is then upsampled by an odd factor and masked so only
a cross through the middle of every factor by factor block keeps its color;
the remaining cells are transparent and the live canvas shows through them.
The block centre is the one sample that is compared against the canvas.
Marker pixels are drawn as a faint black and white checkerboard over the
whole block instead.
*/
package tile

const (
	// MarkerAlpha is the alpha of the checkerboard drawn for marker pixels
	MarkerAlpha = 32
)

// Center returns the offset of the sampled cell within a block.
func Center(factor int) int {
	return (factor - 1) >> 1
}

// Mask reports whether the cell at x, y keeps its color after upsampling by
// factor. x and y may be block-relative or absolute.
func Mask(x, y, factor int) bool {
	c := Center(factor)
	return x%factor == c || y%factor == c
}
