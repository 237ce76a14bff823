package bitmap

import (
	"image"
)

// Slot holds the encoded bytes of a tile and, optionally, its decoded form.
// The decoded bitmap can be released at any time and recovered from the
// retained bytes. A *image.NRGBA handed out by a Slot is never modified or
// reused by it, so callers may keep using it after the slot is released.
type Slot struct {
	buf []byte
	img *image.NRGBA
}

// NewSlot returns a slot holding both the decoded bitmap and its encoding.
// m may be nil in which case the slot starts released.
func NewSlot(buf []byte, m *image.NRGBA) *Slot {
	return &Slot{
		buf: buf,
		img: m,
	}
}

// Bytes returns the retained encoded bytes.
func (s *Slot) Bytes() []byte {
	return s.buf
}

// Bitmap returns the decoded bitmap if it is currently held.
func (s *Slot) Bitmap() (*image.NRGBA, bool) {
	return s.img, s.img != nil
}

// Loaded reports whether the decoded bitmap is currently held.
func (s *Slot) Loaded() bool {
	return s.img != nil
}

// Release drops the decoded bitmap, leaving only the encoded bytes.
func (s *Slot) Release() {
	s.img = nil
}

// Reacquire returns the decoded bitmap, decoding it from the retained bytes
// if it was released. When keep is true the decoded form is held by the slot
// again, otherwise the slot stays released.
func (s *Slot) Reacquire(keep bool) (*image.NRGBA, error) {
	if s.img != nil {
		return s.img, nil
	}
	m, err := DecodeBytes(s.buf)
	if err != nil {
		return nil, err
	}
	if keep {
		s.img = m
	}
	return m, nil
}
