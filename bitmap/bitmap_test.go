package bitmap

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, 7, 3))
	m.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	m.SetNRGBA(6, 2, color.NRGBA{0, 0, 0, 32})
	m.SetNRGBA(3, 1, color.NRGBA{222, 250, 206, 255})
	return m
}

func TestEncodeDecode(t *testing.T) {
	m := testImage()

	b, err := EncodeBytes(m)
	require.NoError(t, err)

	again, err := EncodeBytes(m)
	require.NoError(t, err)
	assert.Equal(t, b, again)

	d, err := DecodeBytes(b)
	require.NoError(t, err)
	assert.Equal(t, m.Rect, d.Rect)
	assert.Equal(t, m.Pix, d.Pix)
}

func TestDecodeOpaque(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range m.Pix {
		m.Pix[i] = 0xff
	}
	m.SetNRGBA(1, 1, color.NRGBA{12, 34, 56, 255})

	b, err := EncodeBytes(m)
	require.NoError(t, err)

	d, err := DecodeBytes(b)
	require.NoError(t, err)
	assert.Equal(t, m.Pix, d.Pix)
}

func TestDecodeConfig(t *testing.T) {
	b, err := EncodeBytes(testImage())
	require.NoError(t, err)

	cfg, err := DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Width)
	assert.Equal(t, 3, cfg.Height)

	cfg, err = DecodeConfigBase64(base64.StdEncoding.EncodeToString(b))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Width)
	assert.Equal(t, 3, cfg.Height)

	_, err = DecodeConfig(bytes.NewReader(b[:10]))
	assert.Equal(t, ErrNotEnough, err)

	bad := append([]byte{}, b...)
	bad[1] = 'X'
	_, err = DecodeConfig(bytes.NewReader(bad))
	assert.Equal(t, ErrNotPNG, err)
}

func TestDecodeTruncated(t *testing.T) {
	b, err := EncodeBytes(testImage())
	require.NoError(t, err)

	_, err = DecodeBytes(b[:len(b)/2])
	assert.Error(t, err)
}

func TestToNRGBA(t *testing.T) {
	m := image.NewRGBA(image.Rect(5, 5, 7, 6))
	m.SetRGBA(6, 5, color.RGBA{10, 20, 30, 255})

	n := ToNRGBA(m)
	assert.Equal(t, image.Rect(0, 0, 2, 1), n.Rect)
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, n.NRGBAAt(1, 0))

	same := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	assert.Same(t, same, ToNRGBA(same))
}

func TestSlot(t *testing.T) {
	m := testImage()
	b, err := EncodeBytes(m)
	require.NoError(t, err)

	s := NewSlot(b, m)
	got, ok := s.Bitmap()
	require.True(t, ok)
	assert.Same(t, m, got)

	s.Release()
	assert.False(t, s.Loaded())
	// A handle taken before the release is untouched
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, got.NRGBAAt(0, 0))

	d, err := s.Reacquire(false)
	require.NoError(t, err)
	assert.Equal(t, m.Pix, d.Pix)
	assert.False(t, s.Loaded())

	d, err = s.Reacquire(true)
	require.NoError(t, err)
	assert.True(t, s.Loaded())
	again, err := s.Reacquire(true)
	require.NoError(t, err)
	assert.Same(t, d, again)
	assert.Equal(t, b, s.Bytes())

	_, err = NewSlot([]byte("junk"), nil).Reacquire(true)
	assert.Error(t, err)
}
