package configmem

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/util"
)

// An Entry maps the physical bits [Bit, Bit+Width) of a frame to the
// logical bits [Logical, Logical+Width).
type Entry struct {
	Frame   int
	Bit     int
	Logical int
	Width   int
	Owner   string
}

// Meta is a key value pair recorded with a table.
type Meta struct {
	Key   string
	Value string
}

// A Table is the ConfigMem of one tile type.
type Table struct {
	Tile      string
	Layout    fabric.Layout
	Frames    int
	TotalBits int
	Entries   []Entry
	Meta      []Meta
}

// MetaValue returns the value of a meta key.
func (t *Table) MetaValue(key string) (string, bool) {
	for _, m := range t.Meta {
		if m.Key == key {
			return m.Value, true
		}
	}

	return "", false
}

// NonDefault reports whether the table was produced with a check disabled.
func (t *Table) NonDefault() bool {
	v, ok := t.MetaValue(MetaCapacityCheck)
	return ok && v == "ignored"
}

// Validate checks that the entries partition the logical bits exactly and
// that no physical bit is used twice.
func (t *Table) Validate() error {
	w := t.Layout.FrameBitsPerRow

	entries := append([]Entry(nil), t.Entries...)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Logical < entries[j].Logical
	})

	next := 0
	used := make(map[[2]int]bool)
	for _, e := range entries {
		if e.Width <= 0 {
			return errors.Errorf("tile %s: entry %+v is empty", t.Tile, e)
		}

		if e.Logical != next {
			if e.Logical < next {
				return errors.Errorf("tile %s: logical bit %d mapped twice",
					t.Tile, e.Logical)
			}

			return errors.Errorf("tile %s: logical bits [%d,%d) are not mapped",
				t.Tile, next, e.Logical)
		}

		if e.Frame < 0 || e.Frame >= t.Frames || e.Bit < 0 || e.Bit+e.Width > w {
			return errors.Errorf("tile %s: entry %+v is outside the frames",
				t.Tile, e)
		}

		for k := e.Bit; k < e.Bit+e.Width; k++ {
			key := [2]int{e.Frame, k}
			if used[key] {
				return errors.Errorf("tile %s: frame %d bit %d used twice",
					t.Tile, e.Frame, k)
			}

			used[key] = true
		}

		next += e.Width
	}

	if next != t.TotalBits {
		return errors.Errorf("tile %s: %d of %d logical bits mapped",
			t.Tile, next, t.TotalBits)
	}

	return nil
}

// Lookup returns the physical location of a logical bit.
func (t *Table) Lookup(bit int) (frame, pos int, ok bool) {
	i := sort.Search(len(t.Entries), func(i int) bool {
		return t.Entries[i].Logical+t.Entries[i].Width > bit
	})

	if i == len(t.Entries) || bit < t.Entries[i].Logical || bit < 0 {
		return 0, 0, false
	}

	e := t.Entries[i]

	return e.Frame, e.Bit + bit - e.Logical, true
}

// UsedBits returns, per position, whether a bit of the frame is used.
func (t *Table) UsedBits(frame int) []bool {
	used := make([]bool, t.Layout.FrameBitsPerRow)
	for _, e := range t.Entries {
		if e.Frame != frame {
			continue
		}

		for k := e.Bit; k < e.Bit+e.Width; k++ {
			used[k] = true
		}
	}

	return used
}

// UsedMask renders the used bits of a frame, bit 0 first, in groups of four.
func (t *Table) UsedMask(frame int) string {
	var sb strings.Builder
	for i, u := range t.UsedBits(frame) {
		if i > 0 && i%4 == 0 {
			sb.WriteByte('_')
		}

		if u {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}

	return sb.String()
}

// FrameUsage is the number of used bits in a frame.
func (t *Table) FrameUsage(frame int) int {
	n := 0
	for _, u := range t.UsedBits(frame) {
		if u {
			n++
		}
	}

	return n
}

func formatRange(lo, width int) string {
	if width == 1 {
		return strconv.Itoa(lo)
	}

	return fmt.Sprintf("%d:%d", lo+width-1, lo)
}

func parseRange(s string) (lo, width int, err error) {
	hiStr, loStr, found := strings.Cut(s, ":")
	if !found {
		lo, err = strconv.Atoi(s)
		return lo, 1, err
	}

	hi, err := strconv.Atoi(hiStr)
	if err != nil {
		return 0, 0, err
	}

	lo, err = strconv.Atoi(loStr)
	if err != nil {
		return 0, 0, err
	}

	if hi < lo {
		return 0, 0, errors.Errorf("descending range %s", s)
	}

	return lo, hi - lo + 1, nil
}

// Render returns a human readable table of the frames.
func (t *Table) Render() string {
	tw := util.NewTable(fmt.Sprintf("ConfigMem %s", t.Tile),
		"Frame", "Used", "Mask", "Frame Bits", "Config Bits", "Owner")

	for _, e := range t.Entries {
		tw.AppendRow([]interface{}{
			frameName(e.Frame),
			t.FrameUsage(e.Frame),
			t.UsedMask(e.Frame),
			formatRange(e.Bit, e.Width),
			formatRange(e.Logical, e.Width),
			e.Owner,
		})
	}

	return tw.Render()
}

func frameName(i int) string {
	return fmt.Sprintf("frame%d", i)
}
