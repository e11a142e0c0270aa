// Package configmem packs the configuration bits of a tile into frames and
// persists the resulting ConfigMem table.
package configmem

import (
	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/switchmatrix"
)

// A Group is a range of logical configuration bits that belongs to one Bel
// or one mux. A group is never split across frames unless it is wider than
// a frame.
type Group struct {
	Owner    string
	Names    []string
	Defaults []bool
}

// Width is the number of bits of the group.
func (g Group) Width() int {
	return len(g.Names)
}

// Groups returns the canonical logical bit vector of a tile: Bel bits in
// Bel order, then mux bits in mux order.
func Groups(t *fabric.Tile, m *switchmatrix.Matrix) []Group {
	var groups []Group

	for _, b := range t.Bels() {
		if b.ConfigBits == 0 {
			continue
		}

		inst := b.Instance()
		g := Group{Owner: inst, Defaults: b.BitDefaults()}
		for _, n := range b.BitNames() {
			g.Names = append(g.Names, inst+"."+n)
		}

		groups = append(groups, g)
	}

	for _, mux := range m.Muxes {
		if mux.ConfigBits == 0 {
			continue
		}

		g := Group{
			Owner:    mux.Dest,
			Defaults: make([]bool, mux.ConfigBits),
		}
		for i := 0; i < mux.ConfigBits; i++ {
			g.Names = append(g.Names, switchmatrix.BitName(mux.Dest, i))
		}

		groups = append(groups, g)
	}

	return groups
}

// TotalBits sums the widths of groups.
func TotalBits(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += g.Width()
	}

	return n
}
