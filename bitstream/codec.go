package bitstream

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/fabric"
)

// Version is the version of the binary spec layout.
const Version = 2

const (
	fabricMagic = "FBSP"
	tileMagic   = "FBTS"

	flagNonDefault = 1 << 0

	emptyCell = 0xFFFF
)

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) put(v any) {
	if e.err != nil {
		return
	}

	e.err = binary.Write(e.w, binary.LittleEndian, v)
}

func (e *encoder) u16(v int) {
	if v < 0 || v > math.MaxUint16 {
		e.fail(errors.Errorf("value %d does not fit into 16 bits", v))
		return
	}

	e.put(uint16(v))
}

func (e *encoder) u32(v int) {
	if v < 0 || int64(v) > math.MaxUint32 {
		e.fail(errors.Errorf("value %d does not fit into 32 bits", v))
		return
	}

	e.put(uint32(v))
}

func (e *encoder) str(s string) {
	e.u16(len(s))
	if e.err == nil {
		_, e.err = e.w.WriteString(s)
	}
}

func (e *encoder) raw(s string) {
	if e.err == nil {
		_, e.err = e.w.WriteString(s)
	}
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *encoder) flush() error {
	if e.err != nil {
		return e.err
	}

	return e.w.Flush()
}

func (e *encoder) tileSection(s *TileSpec) {
	e.str(s.Tile)
	e.u32(len(s.Features))

	for _, f := range s.Features {
		e.str(f.Name)
		e.u16(len(f.Bits))

		for _, b := range f.Bits {
			e.u32(b.Frame)
			e.u32(b.Bit)

			if b.Value {
				e.put(uint8(1))
			} else {
				e.put(uint8(0))
			}
		}
	}

	e.u32(len(s.Defaults))
	for _, d := range s.Defaults {
		e.u32(d.Frame)
		e.u32(d.Bit)
	}
}

// EncodeTileSpec writes a standalone tile spec.
func EncodeTileSpec(w io.Writer, s *TileSpec) error {
	e := &encoder{w: bufio.NewWriter(w)}

	flags := 0
	if s.NonDefault {
		flags |= flagNonDefault
	}

	e.raw(tileMagic)
	e.u16(Version)
	e.u16(flags)
	e.tileSection(s)

	return errors.Wrap(e.flush(), "encode tile spec")
}

// EncodeFabricSpec writes the whole-fabric spec.
func EncodeFabricSpec(w io.Writer, s *FabricSpec) error {
	e := &encoder{w: bufio.NewWriter(w)}

	flags := 0
	if s.NonDefault {
		flags |= flagNonDefault
	}

	e.raw(fabricMagic)
	e.u16(Version)
	e.u16(flags)
	e.u32(s.Layout.FrameBitsPerRow)
	e.u32(s.Layout.MaxFramesPerCol)
	e.u32(s.FramesPerTile())
	e.u32(s.Rows)
	e.u32(s.Cols)

	e.u32(len(s.Meta))
	for _, m := range s.Meta {
		e.str(m[0])
		e.str(m[1])
	}

	e.u32(len(s.Tiles))
	for _, t := range s.Tiles {
		e.tileSection(t)
	}

	for _, row := range s.Grid {
		for _, cell := range row {
			if cell == Empty {
				e.u16(emptyCell)
			} else {
				e.u16(cell)
			}
		}
	}

	return errors.Wrap(e.flush(), "encode fabric spec")
}

type decoder struct {
	r   *bufio.Reader
	err error
}

func (d *decoder) get(v any) {
	if d.err != nil {
		return
	}

	d.err = binary.Read(d.r, binary.LittleEndian, v)
}

func (d *decoder) u8() uint8 {
	var v uint8
	d.get(&v)

	return v
}

func (d *decoder) u16() int {
	var v uint16
	d.get(&v)

	return int(v)
}

func (d *decoder) u32() int {
	var v uint32
	d.get(&v)

	return int(v)
}

func (d *decoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}

	buf := make([]byte, n)
	_, d.err = io.ReadFull(d.r, buf)

	return buf
}

func (d *decoder) str() string {
	return string(d.bytes(d.u16()))
}

func (d *decoder) header(magic string) int {
	if got := string(d.bytes(len(magic))); d.err == nil && got != magic {
		d.err = errors.Errorf("bad magic %q, expected %q", got, magic)
	}

	if v := d.u16(); d.err == nil && v != Version {
		d.err = errors.Errorf("unsupported spec version %d", v)
	}

	return d.u16()
}

// limit guards allocations driven by counts read from the stream.
const limit = 1 << 24

func (d *decoder) count() int {
	n := d.u32()
	if d.err == nil && n > limit {
		d.err = errors.Errorf("count %d is too large", n)
		return 0
	}

	return n
}

func (d *decoder) tileSection() *TileSpec {
	s := &TileSpec{Tile: d.str()}

	n := d.count()
	for i := 0; i < n && d.err == nil; i++ {
		f := Feature{Name: d.str()}

		bits := d.u16()
		for k := 0; k < bits && d.err == nil; k++ {
			frame := d.u32()
			bit := d.u32()
			f.Bits = append(f.Bits, BitRef{Frame: frame, Bit: bit, Value: d.u8() != 0})
		}

		s.Features = append(s.Features, f)
	}

	n = d.count()
	for i := 0; i < n && d.err == nil; i++ {
		frame := d.u32()
		s.Defaults = append(s.Defaults, BitPos{Frame: frame, Bit: d.u32()})
	}

	return s
}

// DecodeTileSpec reads a standalone tile spec.
func DecodeTileSpec(r io.Reader) (*TileSpec, error) {
	d := &decoder{r: bufio.NewReader(r)}

	flags := d.header(tileMagic)
	s := d.tileSection()
	if d.err != nil {
		return nil, errors.Wrap(d.err, "decode tile spec")
	}

	s.NonDefault = flags&flagNonDefault != 0

	return s, nil
}

// DecodeFabricSpec reads a whole-fabric spec.
func DecodeFabricSpec(r io.Reader) (*FabricSpec, error) {
	d := &decoder{r: bufio.NewReader(r)}

	flags := d.header(fabricMagic)
	s := &FabricSpec{NonDefault: flags&flagNonDefault != 0}
	s.Layout = fabric.Layout{FrameBitsPerRow: d.count(), MaxFramesPerCol: d.count()}
	s.Frames = d.count()
	s.Rows = d.count()
	s.Cols = d.count()

	if d.err == nil && (s.Layout.FrameBitsPerRow == 0 || s.Layout.MaxFramesPerCol == 0 ||
		s.Frames < s.Layout.MaxFramesPerCol) {
		d.err = errors.Errorf("invalid layout: %d bits per frame, %d frames per column, %d frames per tile",
			s.Layout.FrameBitsPerRow, s.Layout.MaxFramesPerCol, s.Frames)
	}

	if d.err == nil && s.Rows > 0 && s.Cols > limit/s.Rows {
		d.err = errors.Errorf("grid %dx%d is too large", s.Rows, s.Cols)
	}

	if cells := s.Rows * s.Cols; d.err == nil && cells > 0 &&
		s.Frames*s.Layout.FrameBitsPerRow > limit/cells {
		d.err = errors.Errorf("image of %dx%d tiles of %d bits is too large",
			s.Rows, s.Cols, s.Frames*s.Layout.FrameBitsPerRow)
	}

	n := d.count()
	for i := 0; i < n && d.err == nil; i++ {
		k := d.str()
		s.Meta = append(s.Meta, [2]string{k, d.str()})
	}

	n = d.count()
	for i := 0; i < n && d.err == nil; i++ {
		t := d.tileSection()
		if d.err == nil {
			d.err = t.checkBounds(s.Frames, s.Layout.FrameBitsPerRow)
		}

		s.Tiles = append(s.Tiles, t)
	}

	s.Grid = make([][]int, 0, s.Rows)
	for y := 0; y < s.Rows && d.err == nil; y++ {
		row := make([]int, s.Cols)
		for x := range row {
			cell := d.u16()
			switch {
			case cell == emptyCell:
				row[x] = Empty
			case d.err == nil && cell >= len(s.Tiles):
				d.err = errors.Errorf("cell X%dY%d references tile %d of %d",
					x, y, cell, len(s.Tiles))
			default:
				row[x] = cell
			}
		}

		s.Grid = append(s.Grid, row)
	}

	if d.err != nil {
		return nil, errors.Wrap(d.err, "decode fabric spec")
	}

	if !sort.SliceIsSorted(s.Tiles, func(i, j int) bool {
		return s.Tiles[i].Tile < s.Tiles[j].Tile
	}) {
		return nil, errors.New("decode fabric spec: tile sections are not sorted")
	}

	return s, nil
}
