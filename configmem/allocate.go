package configmem

import (
	"fmt"
	"strconv"

	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/util"
)

// Keys of the meta rows of a table.
const (
	MetaTile             = "tile"
	MetaFrameBits        = "frame_bits_per_row"
	MetaMaxFrames        = "max_frames_per_col"
	MetaTotalBits        = "total_config_bits"
	MetaFrames           = "frames"
	MetaCapacityCheck    = "capacity_check"
	MetaCapacityOverflow = "capacity_overflow"
)

// Options control the allocation.
type Options struct {
	// IgnoreCapacity lets a tile use more frames than the fabric provides.
	// The override is recorded in the table meta.
	IgnoreCapacity bool
}

// CapacityError reports a tile whose bits do not fit into its frames.
// Required counts physical positions including alignment gaps.
type CapacityError struct {
	Tile     string
	Required int
	Capacity int
	Overflow int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("tile %s needs %d config bit positions but only %d fit, %d over",
		e.Tile, e.Required, e.Capacity, e.Overflow)
}

// Allocate places the groups densely, in order, frame by frame. A group
// that fits into a frame is moved to the next frame instead of being split.
func Allocate(
	tile string,
	layout fabric.Layout,
	groups []Group,
	opts Options,
) (*Table, error) {
	w := layout.FrameBitsPerRow

	t := &Table{Tile: tile, Layout: layout}

	pos := 0
	logical := 0
	for _, g := range groups {
		width := g.Width()
		if width == 0 {
			continue
		}

		if width <= w && pos%w+width > w {
			pos += w - pos%w
		}

		remaining := width
		for remaining > 0 {
			frame, bit := pos/w, pos%w
			chunk := w - bit
			if chunk > remaining {
				chunk = remaining
			}

			t.Entries = append(t.Entries, Entry{
				Frame:   frame,
				Bit:     bit,
				Logical: logical,
				Width:   chunk,
				Owner:   g.Owner,
			})

			pos += chunk
			logical += chunk
			remaining -= chunk
		}
	}

	t.TotalBits = logical
	t.Frames = (pos + w - 1) / w

	capacity := layout.TileBits()
	t.Meta = []Meta{
		{MetaTile, tile},
		{MetaFrameBits, strconv.Itoa(w)},
		{MetaMaxFrames, strconv.Itoa(layout.MaxFramesPerCol)},
		{MetaTotalBits, strconv.Itoa(t.TotalBits)},
		{MetaFrames, strconv.Itoa(t.Frames)},
	}

	if pos > capacity {
		if !opts.IgnoreCapacity {
			return nil, &CapacityError{
				Tile:     tile,
				Required: pos,
				Capacity: capacity,
				Overflow: pos - capacity,
			}
		}

		t.Meta = append(t.Meta,
			Meta{MetaCapacityCheck, "ignored"},
			Meta{MetaCapacityOverflow, strconv.Itoa(pos - capacity)})
	}

	util.Trace("ConfigMem allocated",
		"tile", tile, "bits", t.TotalBits, "frames", t.Frames)

	return t, nil
}
