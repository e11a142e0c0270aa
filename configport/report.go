package configport

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/fabgen/util"
)

// TileReport is the read back result of one placed tile.
type TileReport struct {
	X, Y int
	Tile string
	Bits int
	Set  int
	// Unreachable counts bits in frames the column strobe cannot select.
	Unreachable int
	// Mismatches are the logical bits that differ from the image.
	Mismatches []int
}

// Report summarizes a programming run.
type Report struct {
	Cycles int
	Time   sim.VTimeInSec
	Tiles  []TileReport
}

// OK reports whether every tile holds exactly the image.
func (r *Report) OK() bool {
	for _, t := range r.Tiles {
		if len(t.Mismatches) > 0 {
			return false
		}
	}

	return true
}

// Mismatches counts the differing bits over all tiles.
func (r *Report) Mismatches() int {
	n := 0
	for _, t := range r.Tiles {
		n += len(t.Mismatches)
	}

	return n
}

// Render prints the report as a table.
func (r *Report) Render() string {
	t := util.NewTable(
		fmt.Sprintf("Programming: %d cycles, %.3f us", r.Cycles, float64(r.Time)*1e6),
		"Tile", "Type", "Bits", "Set", "Unreachable", "Mismatches")

	for _, tr := range r.Tiles {
		t.AppendRow([]interface{}{
			fmt.Sprintf("X%dY%d", tr.X, tr.Y),
			tr.Tile, tr.Bits, tr.Set, tr.Unreachable, len(tr.Mismatches),
		})
	}

	t.AppendFooter([]interface{}{"", "", "", "", "Total", r.Mismatches()})

	return t.Render()
}
