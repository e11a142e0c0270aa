// Package bitstream maps symbolic features onto configuration bits and
// rasterizes feature lists into bitstream images.
package bitstream

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/configmem"
	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/switchmatrix"
)

// A BitRef is one physical bit of a feature and the value the feature
// requires it to have.
type BitRef struct {
	Frame int
	Bit   int
	Value bool
}

// A Feature is a named configuration decision. Selecting it writes each
// bit's Value. A feature without bits is a fixed connection.
type Feature struct {
	Name string
	Bits []BitRef
}

// BitPos is a physical bit of a tile.
type BitPos struct {
	Frame int
	Bit   int
}

// A TileSpec is the feature table of one tile type.
type TileSpec struct {
	Tile     string
	Features []Feature
	// Defaults are the bits that are set in an unconfigured tile.
	Defaults []BitPos
	// NonDefault is set when the ConfigMem was built with a check disabled.
	NonDefault bool

	index map[string]int
}

// Feature looks a feature up by its tile-relative name.
func (s *TileSpec) Feature(name string) (Feature, bool) {
	if s.index == nil {
		s.buildIndex()
	}

	i, ok := s.index[name]
	if !ok {
		return Feature{}, false
	}

	return s.Features[i], true
}

func (s *TileSpec) buildIndex() {
	s.index = make(map[string]int, len(s.Features))
	for i, f := range s.Features {
		s.index[f.Name] = i
	}
}

// Frames is the number of frames the tile's bits reach into.
func (s *TileSpec) Frames() int {
	n := 0
	for _, f := range s.Features {
		for _, b := range f.Bits {
			n = max(n, b.Frame+1)
		}
	}

	for _, d := range s.Defaults {
		n = max(n, d.Frame+1)
	}

	return n
}

// checkBounds reports the first bit that lies outside frames frames of
// frameBits bits.
func (s *TileSpec) checkBounds(frames, frameBits int) error {
	inside := func(frame, bit int) bool {
		return frame >= 0 && frame < frames && bit >= 0 && bit < frameBits
	}

	for _, f := range s.Features {
		for _, b := range f.Bits {
			if !inside(b.Frame, b.Bit) {
				return errors.Errorf("tile %s: feature %s uses bit f%d:b%d outside %d frames of %d bits",
					s.Tile, f.Name, b.Frame, b.Bit, frames, frameBits)
			}
		}
	}

	for _, d := range s.Defaults {
		if !inside(d.Frame, d.Bit) {
			return errors.Errorf("tile %s: default bit f%d:b%d outside %d frames of %d bits",
				s.Tile, d.Frame, d.Bit, frames, frameBits)
		}
	}

	return nil
}

// PipName names the feature that connects src to dest.
func PipName(src, dest string) string {
	return fmt.Sprintf("%s.%s", src, dest)
}

// GenerateTileSpec derives the feature table of a tile from its switch
// matrix and ConfigMem table. Bel features come first, then the mux bits,
// then one pip per mux source. A one-hot pip sets a single bit, a binary
// pip writes the whole selection pattern.
func GenerateTileSpec(
	t *fabric.Tile,
	m *switchmatrix.Matrix,
	table *configmem.Table,
) (*TileSpec, error) {
	s := &TileSpec{Tile: t.Name(), NonDefault: table.NonDefault()}

	groups := configmem.Groups(t, m)
	if want := configmem.TotalBits(groups); want != table.TotalBits {
		return nil, fabric.NewModelError(t.Source(), "tile "+t.Name(),
			"ConfigMem maps %d bits but the tile needs %d", table.TotalBits, want)
	}

	locate := func(logical int) (BitPos, error) {
		frame, bit, ok := table.Lookup(logical)
		if !ok {
			return BitPos{}, fabric.NewModelError(t.Source(), "tile "+t.Name(),
				"config bit %d is not mapped", logical)
		}

		return BitPos{Frame: frame, Bit: bit}, nil
	}

	seen := make(map[string]bool)
	add := func(f Feature) error {
		if seen[f.Name] {
			return fabric.NewModelError(t.Source(), "tile "+t.Name(),
				"feature %s is defined twice", f.Name)
		}

		seen[f.Name] = true
		s.Features = append(s.Features, f)

		return nil
	}

	belGroups := 0
	for _, b := range t.Bels() {
		if b.ConfigBits > 0 {
			belGroups++
		}
	}

	logical := 0
	muxBase := make(map[string]int)

	for gi, g := range groups {
		if gi >= belGroups {
			muxBase[g.Owner] = logical
		}

		for k, name := range g.Names {
			pos, err := locate(logical + k)
			if err != nil {
				return nil, err
			}

			if err := add(Feature{Name: name, Bits: []BitRef{
				{Frame: pos.Frame, Bit: pos.Bit, Value: true},
			}}); err != nil {
				return nil, err
			}

			if g.Defaults[k] {
				s.Defaults = append(s.Defaults, pos)
			}
		}

		logical += g.Width()
	}

	for _, mux := range m.Muxes {
		base := muxBase[mux.Dest]

		for i, src := range mux.Sources {
			f := Feature{Name: PipName(src, mux.Dest)}

			for k, v := range mux.SelectPattern(i) {
				if !v && mux.Encoding == fabric.OneHot {
					continue
				}

				pos, err := locate(base + k)
				if err != nil {
					return nil, err
				}

				f.Bits = append(f.Bits,
					BitRef{Frame: pos.Frame, Bit: pos.Bit, Value: v})
			}

			if err := add(f); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}
