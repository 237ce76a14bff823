/*
Package bitmap implements the PNG bitmap codec used for template and canvas
tiles.

Tiles are always handled as non-premultiplied 8-bit RGBA. Encoding is
deterministic so the same bitmap always produces the same bytes. The width
and height of a PNG can be read straight from its IHDR chunk without decoding
the image: after the 8 byte signature and the 8 byte chunk header the width is
a big-endian 32-bit value at offset 16 and the height follows at offset 20.
*/
package bitmap

const (
	signatureLength = 8
	widthOffset     = 16
	heightOffset    = 20
	headerLength    = 24
)

var signature = [signatureLength]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
