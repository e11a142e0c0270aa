package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sarchlab/fabgen/bitstream"
	"github.com/sarchlab/fabgen/compiler"
	"github.com/sarchlab/fabgen/configmem"
	"github.com/sarchlab/fabgen/switchmatrix"
)

// Lint runs the static checks over every tile of a compilation.
func Lint(r *compiler.Result) []Issue {
	var issues []Issue

	for _, t := range r.Tiles {
		issues = append(issues, LintTile(t)...)
	}

	return issues
}

// LintTile checks one tile type.
func LintTile(t *compiler.TileResult) []Issue {
	var issues []Issue

	issues = append(issues, lintTable(t)...)
	issues = append(issues, lintSpec(t)...)
	issues = append(issues, lintRoutes(t)...)

	return issues
}

func lintTable(t *compiler.TileResult) []Issue {
	name := t.Tile.Name()

	var issues []Issue

	if err := t.Table.Validate(); err != nil {
		issues = append(issues, Issue{
			Type:    IssueStruct,
			Tile:    name,
			Subject: "ConfigMem",
			Message: err.Error(),
		})
	}

	want := configmem.TotalBits(configmem.Groups(t.Tile, t.Matrix))
	if t.Table.TotalBits != want {
		issues = append(issues, Issue{
			Type:    IssueStruct,
			Tile:    name,
			Subject: "ConfigMem",
			Message: fmt.Sprintf("maps %d bits, the tile needs %d",
				t.Table.TotalBits, want),
		})
	}

	return issues
}

func lintSpec(t *compiler.TileResult) []Issue {
	name := t.Tile.Name()

	base := make(map[string]bool)
	for _, g := range configmem.Groups(t.Tile, t.Matrix) {
		for _, n := range g.Names {
			base[n] = true
		}
	}

	pipDest := make(map[string]string)
	for _, mux := range t.Matrix.Muxes {
		for _, src := range mux.Sources {
			pipDest[bitstream.PipName(src, mux.Dest)] = mux.Dest
		}
	}

	var issues []Issue

	owner := make(map[bitstream.BitPos]string)

	for _, f := range t.Spec.Features {
		if !base[f.Name] {
			continue
		}

		for _, b := range f.Bits {
			pos := bitstream.BitPos{Frame: b.Frame, Bit: b.Bit}

			if !latched(t.Table, pos) {
				issues = append(issues, Issue{
					Type:    IssueStruct,
					Tile:    name,
					Subject: f.Name,
					Message: fmt.Sprintf("bit f%d:b%d has no latch", pos.Frame, pos.Bit),
				})
			}

			if prev, dup := owner[pos]; dup {
				issues = append(issues, Issue{
					Type:    IssueStruct,
					Tile:    name,
					Subject: f.Name,
					Message: fmt.Sprintf("bit f%d:b%d is also used by %s",
						pos.Frame, pos.Bit, prev),
				})

				continue
			}

			owner[pos] = f.Name
		}
	}

	for _, f := range t.Spec.Features {
		dest, isPip := pipDest[f.Name]
		if base[f.Name] {
			continue
		}

		if !isPip {
			issues = append(issues, Issue{
				Type:    IssueStruct,
				Tile:    name,
				Subject: f.Name,
				Message: "feature is neither a config bit nor a pip",
			})

			continue
		}

		for _, b := range f.Bits {
			pos := bitstream.BitPos{Frame: b.Frame, Bit: b.Bit}

			o := owner[pos]
			if !strings.HasPrefix(o, dest+".") {
				issues = append(issues, Issue{
					Type:    IssueStruct,
					Tile:    name,
					Subject: f.Name,
					Message: fmt.Sprintf("bit f%d:b%d belongs to %q instead of mux %s",
						pos.Frame, pos.Bit, o, dest),
				})
			}
		}
	}

	return issues
}

func latched(table *configmem.Table, pos bitstream.BitPos) bool {
	used := table.UsedBits(pos.Frame)
	return pos.Bit >= 0 && pos.Bit < len(used) && used[pos.Bit]
}

func lintRoutes(t *compiler.TileResult) []Issue {
	name := t.Tile.Name()

	var issues []Issue

	listened := make(map[string]bool)

	for _, mux := range t.Matrix.Muxes {
		constant := true

		for _, src := range mux.Sources {
			listened[src] = true

			if !switchmatrix.IsConstant(src) {
				constant = false
			}
		}

		if constant {
			issues = append(issues, Issue{
				Type:    IssueRoute,
				Tile:    name,
				Subject: mux.Dest,
				Message: "only constant sources",
			})
		}
	}

	var unused []string
	for _, in := range t.Matrix.Inputs {
		if !listened[in] {
			unused = append(unused, in)
		}
	}

	sort.Strings(unused)

	for _, in := range unused {
		issues = append(issues, Issue{
			Type:    IssueRoute,
			Tile:    name,
			Subject: in,
			Message: "input is not routed to any destination",
		})
	}

	return issues
}
