package bitstream

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// An Image is a raw bitstream, one bit per configuration cell, stored
// MSB first in each byte.
type Image struct {
	size int
	data []byte
}

// NewImage creates an all-zero image of size bits.
func NewImage(size int) *Image {
	return &Image{size: size, data: make([]byte, (size+7)/8)}
}

// Size returns the number of bits.
func (img *Image) Size() int {
	return img.size
}

// Bit returns the value of one bit.
func (img *Image) Bit(addr int) bool {
	if addr < 0 || addr >= img.size {
		panic(fmt.Sprintf("bit %d outside image of %d bits", addr, img.size))
	}

	return img.data[addr/8]&(0x80>>uint(addr%8)) != 0
}

// SetBit changes one bit.
func (img *Image) SetBit(addr int, v bool) {
	if addr < 0 || addr >= img.size {
		panic(fmt.Sprintf("bit %d outside image of %d bits", addr, img.size))
	}

	mask := byte(0x80 >> uint(addr%8))
	if v {
		img.data[addr/8] |= mask
	} else {
		img.data[addr/8] &^= mask
	}
}

// Bytes returns a copy of the raw image.
func (img *Image) Bytes() []byte {
	return append([]byte(nil), img.data...)
}

// WriteTo writes the raw image.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(img.data)
	return int64(n), errors.Wrap(err, "write bitstream")
}

// ReadImage reads a raw image that must match the size of the spec.
func ReadImage(r io.Reader, spec *FabricSpec) (*Image, error) {
	img := NewImage(spec.Size())

	if _, err := io.ReadFull(r, img.data); err != nil {
		return nil, errors.Wrap(err, "read bitstream")
	}

	var extra [1]byte
	if n, _ := r.Read(extra[:]); n > 0 {
		return nil, errors.Errorf("bitstream is longer than %d bytes", len(img.data))
	}

	return img, nil
}

// FrameData returns the bits of one frame of the tile at (x, y).
func (img *Image) FrameData(spec *FabricSpec, x, y, frame int) []bool {
	bits := make([]bool, spec.Layout.FrameBitsPerRow)
	for i := range bits {
		bits[i] = img.Bit(spec.Address(x, y, frame, i))
	}

	return bits
}

// Trace writes the features that the image selects, one per line, with
// their addresses.
func (img *Image) Trace(w io.Writer, spec *FabricSpec) error {
	for _, a := range Decode(spec, img, DecodeOptions{SetOnly: true}) {
		x, y, name, _ := SplitFeature(a.Feature)
		f, _ := spec.TileAt(x, y).Feature(name)

		if _, err := fmt.Fprintf(w, "%s", a.Feature); err != nil {
			return errors.Wrap(err, "write trace")
		}

		for _, b := range f.Bits {
			addr := spec.Address(x, y, b.Frame, b.Bit)
			if _, err := fmt.Fprintf(w, " @%d(f%d:b%d)=%d",
				addr, b.Frame, b.Bit, boolToInt(b.Value)); err != nil {
				return errors.Wrap(err, "write trace")
			}
		}

		if _, err := fmt.Fprintln(w); err != nil {
			return errors.Wrap(err, "write trace")
		}
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
