package bitmap

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
)

var (
	ErrNotEnough = errors.New("bitmap: not enough image data")
	ErrNotPNG    = errors.New("bitmap: not a PNG image")
	ErrBadHeader = errors.New("bitmap: invalid IHDR chunk")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r io.Reader

	width, height int

	image *image.NRGBA

	tmp [headerLength]byte
}

func (d *decoder) readHeader() error {
	if err := readFull(d.r, d.tmp[:]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return ErrNotEnough
	}

	if !bytes.Equal(d.tmp[:signatureLength], signature[:]) {
		return ErrNotPNG
	}
	if string(d.tmp[widthOffset-4:widthOffset]) != "IHDR" {
		return ErrBadHeader
	}

	d.width = int(binary.BigEndian.Uint32(d.tmp[widthOffset:heightOffset]))
	d.height = int(binary.BigEndian.Uint32(d.tmp[heightOffset:headerLength]))

	return nil
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	if configOnly {
		d.r = r
		return d.readHeader()
	}

	m, err := png.Decode(r)
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			return ErrNotEnough
		}
		return err
	}
	d.image = ToNRGBA(m)
	d.width, d.height = d.image.Rect.Dx(), d.image.Rect.Dy()

	return nil
}

// ToNRGBA returns m as an *image.NRGBA with its top-left corner at (0, 0),
// converting it if necessary.
func ToNRGBA(m image.Image) *image.NRGBA {
	if nm, ok := m.(*image.NRGBA); ok && nm.Rect.Min == (image.Point{}) {
		return nm
	}

	b := m.Bounds()
	nm := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			nm.SetNRGBA(x-b.Min.X, y-b.Min.Y, color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA))
		}
	}
	return nm
}

// Decode reads a PNG image from r and returns it as an *image.NRGBA.
func Decode(r io.Reader) (*image.NRGBA, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return d.image, nil
}

// DecodeBytes decodes a PNG image held in b.
func DecodeBytes(b []byte) (*image.NRGBA, error) {
	return Decode(bytes.NewReader(b))
}

// DecodeConfig returns the dimensions of a PNG image by reading the IHDR
// chunk only, without decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      d.width,
		Height:     d.height,
	}, nil
}

// DecodeConfigBase64 is like DecodeConfig but reads from a base64 encoded
// PNG, as found in exported templates.
func DecodeConfigBase64(s string) (image.Config, error) {
	return DecodeConfig(base64.NewDecoder(base64.StdEncoding, bytes.NewReader([]byte(s))))
}
