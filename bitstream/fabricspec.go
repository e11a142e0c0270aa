package bitstream

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/sarchlab/fabgen/fabric"
)

// Empty marks a grid cell without a tile.
const Empty = -1

// A FabricSpec places the tile specs on the fabric grid.
type FabricSpec struct {
	Layout fabric.Layout
	// Frames is the number of frames reserved per grid cell. It exceeds
	// MaxFramesPerCol when a tile was allocated past the capacity check.
	Frames int
	Rows   int
	Cols   int
	// NonDefault is set when any tile was built with a check disabled.
	NonDefault bool
	Meta       [][2]string
	// Tiles are sorted by name.
	Tiles []*TileSpec
	// Grid holds, per [y][x], an index into Tiles or Empty.
	Grid [][]int
}

// ComposeFabricSpec combines the fabric geometry with the spec of every
// tile type used in the grid.
func ComposeFabricSpec(
	f *fabric.Fabric,
	specs map[string]*TileSpec,
) (*FabricSpec, error) {
	s := &FabricSpec{
		Layout: f.Layout(),
		Frames: f.Layout().MaxFramesPerCol,
		Rows:   f.Rows(),
		Cols:   f.Columns(),
	}

	index := make(map[string]int)
	for i, name := range f.UsedTileNames() {
		ts, ok := specs[name]
		if !ok {
			return nil, fabric.NewModelError(f.Source(), "tile "+name,
				"no bitstream spec for a tile used in the grid")
		}

		index[name] = i
		s.Tiles = append(s.Tiles, ts)

		if ts.NonDefault {
			s.NonDefault = true
		}

		if n := ts.Frames(); n > s.Frames {
			s.Frames = n
		}
	}

	s.Meta = [][2]string{
		{"fabric", f.Name()},
		{"config_bit_mode", f.Params().ConfigBitMode.String()},
		{"mux_encoding", f.Params().MuxEncoding.String()},
	}

	for _, ts := range s.Tiles {
		if ts.NonDefault {
			s.Meta = append(s.Meta, [2]string{"capacity_check." + ts.Tile, "ignored"})
		}
	}

	if s.Frames > s.Layout.MaxFramesPerCol {
		s.Meta = append(s.Meta, [2]string{"frames_per_tile", strconv.Itoa(s.Frames)})
	}

	s.Grid = make([][]int, s.Rows)
	for y := range s.Grid {
		s.Grid[y] = make([]int, s.Cols)
		for x := range s.Grid[y] {
			name := f.Cell(x, y)
			if name == "" {
				s.Grid[y][x] = Empty
				continue
			}

			s.Grid[y][x] = index[name]
		}
	}

	return s, nil
}

// FramesPerTile is the number of frames reserved for every grid cell.
func (s *FabricSpec) FramesPerTile() int {
	if s.Frames > s.Layout.MaxFramesPerCol {
		return s.Frames
	}

	return s.Layout.MaxFramesPerCol
}

// TileBits is the number of bits reserved for every grid cell.
func (s *FabricSpec) TileBits() int {
	return s.FramesPerTile() * s.Layout.FrameBitsPerRow
}

// Size is the number of bits of a full image.
func (s *FabricSpec) Size() int {
	return s.Rows * s.Cols * s.TileBits()
}

// Base returns the first address of the tile at (x, y).
func (s *FabricSpec) Base(x, y int) int {
	return (y*s.Cols + x) * s.TileBits()
}

// Address returns the absolute address of a bit of the tile at (x, y).
func (s *FabricSpec) Address(x, y, frame, bit int) int {
	return s.Base(x, y) + frame*s.Layout.FrameBitsPerRow + bit
}

// TileAt returns the spec of the tile at (x, y), or nil.
func (s *FabricSpec) TileAt(x, y int) *TileSpec {
	if y < 0 || y >= s.Rows || x < 0 || x >= s.Cols {
		return nil
	}

	i := s.Grid[y][x]
	if i == Empty {
		return nil
	}

	return s.Tiles[i]
}

// TileSpec returns a tile spec by name.
func (s *FabricSpec) TileSpec(name string) (*TileSpec, bool) {
	i := sort.Search(len(s.Tiles), func(i int) bool {
		return s.Tiles[i].Tile >= name
	})

	if i < len(s.Tiles) && s.Tiles[i].Tile == name {
		return s.Tiles[i], true
	}

	return nil, false
}

// InstanceName is the prefix of the features of the tile at (x, y).
func InstanceName(x, y int) string {
	return fmt.Sprintf("X%dY%d", x, y)
}

var featurePath = regexp.MustCompile(`^X(\d+)Y(\d+)\.(.+)$`)

// SplitFeature separates a feature path into its tile coordinate and the
// tile-relative feature name.
func SplitFeature(path string) (x, y int, name string, ok bool) {
	m := featurePath.FindStringSubmatch(path)
	if m == nil {
		return 0, 0, "", false
	}

	x, errX := strconv.Atoi(m[1])
	y, errY := strconv.Atoi(m[2])
	if errX != nil || errY != nil {
		return 0, 0, "", false
	}

	return x, y, m[3], true
}
