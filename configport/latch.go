package configport

import (
	"github.com/sarchlab/fabgen/configmem"
)

// A tileLatch holds the frame latches of one placed tile.
type tileLatch struct {
	x, y   int
	table  *configmem.Table
	frames [][]bool
}

func newTileLatch(x, y int, table *configmem.Table) *tileLatch {
	l := &tileLatch{x: x, y: y, table: table}

	l.frames = make([][]bool, table.Layout.MaxFramesPerCol)
	for f := range l.frames {
		l.frames[f] = make([]bool, table.Layout.FrameBitsPerRow)
	}

	return l
}

// strobe captures data into frame f, but only the bits the ConfigMem
// places a latch on.
func (l *tileLatch) strobe(f int, data []bool) {
	used := l.table.UsedBits(f)

	for b, v := range data {
		if b < len(used) && used[b] {
			l.frames[f][b] = v
		}
	}
}

// configBits reads the logical ConfigBits vector back out of the latches.
// Bits in frames beyond the column strobe are never written and read as
// zero.
func (l *tileLatch) configBits() []bool {
	bits := make([]bool, l.table.TotalBits)

	for _, e := range l.table.Entries {
		if e.Frame >= len(l.frames) {
			continue
		}

		for k := 0; k < e.Width; k++ {
			bits[e.Logical+k] = l.frames[e.Frame][e.Bit+k]
		}
	}

	return bits
}
