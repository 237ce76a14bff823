package bitmap

import (
	"bytes"
	"image"
	"image/png"
	"io"
)

var encoder = png.Encoder{
	CompressionLevel: png.BestCompression,
}

// Encode writes the image m to w in PNG format.
func Encode(w io.Writer, m image.Image) error {
	return encoder.Encode(w, m)
}

// EncodeBytes returns the PNG encoding of m.
func EncodeBytes(m image.Image) ([]byte, error) {
	b := new(bytes.Buffer)
	if err := Encode(b, m); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
