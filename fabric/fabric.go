// Package fabric models an eFPGA fabric: a grid of tile types, each made of
// Bels and a switch matrix, and loads it from its CSV and YAML description.
package fabric

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ConfigBitMode selects how configuration bits are delivered to the tiles.
type ConfigBitMode int

const (
	FrameBased ConfigBitMode = iota
	FlipFlopChain
)

func (m ConfigBitMode) String() string {
	switch m {
	case FrameBased:
		return "frame_based"
	case FlipFlopChain:
		return "FlipFlopChain"
	default:
		panic("invalid config bit mode")
	}
}

// ParseConfigBitMode parses frame_based or FlipFlopChain.
func ParseConfigBitMode(s string) (ConfigBitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frame_based", "framebased":
		return FrameBased, nil
	case "flipflopchain", "ff_chain":
		return FlipFlopChain, nil
	}

	return FrameBased, errors.Errorf("unknown config bit mode %q", s)
}

// MuxEncoding selects how a mux selection is encoded in configuration bits.
type MuxEncoding int

const (
	// OneHot uses one bit per source; bit i connects source i.
	OneHot MuxEncoding = iota
	// Binary stores the index of the selected source.
	Binary
)

func (e MuxEncoding) String() string {
	switch e {
	case OneHot:
		return "onehot"
	case Binary:
		return "binary"
	default:
		panic("invalid mux encoding")
	}
}

// ParseMuxEncoding parses onehot or binary.
func ParseMuxEncoding(s string) (MuxEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "onehot", "one_hot", "one-hot":
		return OneHot, nil
	case "binary":
		return Binary, nil
	}

	return OneHot, errors.Errorf("unknown mux encoding %q", s)
}

// Layout is the frame geometry shared by every tile of a fabric.
type Layout struct {
	FrameBitsPerRow int
	MaxFramesPerCol int
}

// TileBits is the configuration capacity of one tile.
func (l Layout) TileBits() int {
	return l.FrameBitsPerRow * l.MaxFramesPerCol
}

// DefaultLayout is the frame geometry used when a fabric does not set one.
var DefaultLayout = Layout{FrameBitsPerRow: 32, MaxFramesPerCol: 20}

// Params are the fabric-wide parameters.
type Params struct {
	Name          string
	Layout        Layout
	ConfigBitMode ConfigBitMode
	MuxEncoding   MuxEncoding
}

// A Fabric is a loaded fabric description.
type Fabric struct {
	params     Params
	grid       [][]string
	tiles      map[string]*Tile
	superTiles map[string]*SuperTile
	source     string
}

// NewFabric assembles a fabric. grid is indexed [y][x] and holds tile type
// names; an empty string is an empty cell.
func NewFabric(
	params Params,
	grid [][]string,
	tiles []*Tile,
	superTiles []*SuperTile,
) (*Fabric, error) {
	f := &Fabric{
		params:     params,
		tiles:      make(map[string]*Tile),
		superTiles: make(map[string]*SuperTile),
	}

	for _, row := range grid {
		f.grid = append(f.grid, append([]string(nil), row...))
	}

	for _, t := range tiles {
		if _, dup := f.tiles[t.name]; dup {
			return nil, NewModelError(t.source, "tile "+t.name,
				"tile declared more than once")
		}

		f.tiles[t.name] = t
	}

	for _, s := range superTiles {
		if _, dup := f.superTiles[s.name]; dup {
			return nil, NewModelError(s.source, "supertile "+s.name,
				"super tile declared more than once")
		}

		f.superTiles[s.name] = s
	}

	if err := f.validate(); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *Fabric) validate() error {
	if f.params.Layout.FrameBitsPerRow <= 0 || f.params.Layout.MaxFramesPerCol <= 0 {
		return NewModelError(f.source, "parameters",
			"invalid frame geometry %dx%d",
			f.params.Layout.MaxFramesPerCol, f.params.Layout.FrameBitsPerRow)
	}

	if len(f.grid) == 0 {
		return NewModelError(f.source, "grid", "fabric grid is empty")
	}

	for y, row := range f.grid {
		if len(row) != len(f.grid[0]) {
			return NewModelError(f.source, "grid",
				"row %d has %d cells, expected %d", y, len(row), len(f.grid[0]))
		}

		for x, name := range row {
			if name == "" {
				continue
			}

			if _, ok := f.tiles[name]; !ok {
				return NewModelError(f.source, "grid",
					"cell X%dY%d references unknown tile %s", x, y, name)
			}
		}
	}

	for _, s := range f.superTiles {
		for _, t := range s.Tiles() {
			if f.tiles[t.name] != t {
				return NewModelError(s.source, "supertile "+s.name,
					"sub tile %s is not declared in the fabric", t.name)
			}
		}
	}

	return nil
}

// Name returns the fabric name.
func (f *Fabric) Name() string {
	return f.params.Name
}

// Source returns the file the fabric was loaded from.
func (f *Fabric) Source() string {
	return f.source
}

// Params returns the fabric-wide parameters.
func (f *Fabric) Params() Params {
	return f.params
}

// Layout returns the frame geometry.
func (f *Fabric) Layout() Layout {
	return f.params.Layout
}

// Rows returns the grid height.
func (f *Fabric) Rows() int {
	return len(f.grid)
}

// Columns returns the grid width.
func (f *Fabric) Columns() int {
	return len(f.grid[0])
}

// Cell returns the tile type name at (x, y), empty for an empty cell.
func (f *Fabric) Cell(x, y int) string {
	if y < 0 || y >= len(f.grid) || x < 0 || x >= len(f.grid[y]) {
		return ""
	}

	return f.grid[y][x]
}

// TileAt returns the tile type at (x, y), or nil for an empty or
// out-of-range cell.
func (f *Fabric) TileAt(x, y int) *Tile {
	return f.tiles[f.Cell(x, y)]
}

// Tile returns a tile type by name.
func (f *Fabric) Tile(name string) (*Tile, bool) {
	t, ok := f.tiles[name]
	return t, ok
}

// TileNames returns the names of all declared tile types, sorted.
func (f *Fabric) TileNames() []string {
	names := make([]string, 0, len(f.tiles))
	for n := range f.tiles {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// UsedTileNames returns the sorted names of the tile types placed in the
// grid.
func (f *Fabric) UsedTileNames() []string {
	used := make(map[string]bool)
	for _, row := range f.grid {
		for _, n := range row {
			if n != "" {
				used[n] = true
			}
		}
	}

	names := make([]string, 0, len(used))
	for n := range used {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// SuperTile returns a super tile by name.
func (f *Fabric) SuperTile(name string) (*SuperTile, bool) {
	s, ok := f.superTiles[name]
	return s, ok
}

// SuperTileNames returns the sorted super tile names.
func (f *Fabric) SuperTileNames() []string {
	names := make([]string, 0, len(f.superTiles))
	for n := range f.superTiles {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
