package bitstream

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/util"
)

// WriteTileSpecCSV writes one row per feature bit. Features without bits
// get a single row with empty location columns.
func WriteTileSpecCSV(w io.Writer, s *TileSpec) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"feature", "frame", "bit", "value", "default"}); err != nil {
		return errors.Wrap(err, "write tile spec")
	}

	defaults := make(map[BitPos]bool, len(s.Defaults))
	for _, d := range s.Defaults {
		defaults[d] = true
	}

	for _, f := range s.Features {
		if len(f.Bits) == 0 {
			if err := cw.Write([]string{f.Name, "", "", "", ""}); err != nil {
				return errors.Wrap(err, "write tile spec")
			}

			continue
		}

		for _, b := range f.Bits {
			row := []string{
				f.Name,
				strconv.Itoa(b.Frame),
				strconv.Itoa(b.Bit),
				strconv.Itoa(boolToInt(b.Value)),
				strconv.Itoa(boolToInt(defaults[BitPos{b.Frame, b.Bit}])),
			}

			if err := cw.Write(row); err != nil {
				return errors.Wrap(err, "write tile spec")
			}
		}
	}

	cw.Flush()

	return errors.Wrap(cw.Error(), "write tile spec")
}

// RenderFabricSpec returns a readable summary of the fabric spec: the
// geometry and meta, the tile grid, and the feature count per tile type.
func RenderFabricSpec(s *FabricSpec) string {
	var sb strings.Builder

	info := util.NewTable("Bitstream Spec", "Key", "Value")
	info.AppendRow([]interface{}{"version", Version})
	info.AppendRow([]interface{}{"frame_bits_per_row", s.Layout.FrameBitsPerRow})
	info.AppendRow([]interface{}{"max_frames_per_col", s.Layout.MaxFramesPerCol})
	info.AppendRow([]interface{}{"frames_per_tile", s.FramesPerTile()})
	info.AppendRow([]interface{}{"rows", s.Rows})
	info.AppendRow([]interface{}{"columns", s.Cols})
	info.AppendRow([]interface{}{"image_bits", s.Size()})
	info.AppendRow([]interface{}{"non_default", s.NonDefault})

	for _, m := range s.Meta {
		info.AppendRow([]interface{}{m[0], m[1]})
	}

	sb.WriteString(info.Render())
	sb.WriteString("\n\n")

	header := []interface{}{"Y\\X"}
	for x := 0; x < s.Cols; x++ {
		header = append(header, x)
	}

	grid := util.NewTable("Tile Map", header...)
	for y := 0; y < s.Rows; y++ {
		row := []interface{}{y}
		for x := 0; x < s.Cols; x++ {
			if ts := s.TileAt(x, y); ts != nil {
				row = append(row, fmt.Sprintf("%s@%d", ts.Tile, s.Base(x, y)))
			} else {
				row = append(row, "NULL")
			}
		}

		grid.AppendRow(row)
	}

	sb.WriteString(grid.Render())
	sb.WriteString("\n\n")

	tiles := util.NewTable("Tile Types", "Tile", "Features", "Bits", "Defaults")
	for _, ts := range s.Tiles {
		bits := make(map[BitPos]bool)
		for _, f := range ts.Features {
			for _, b := range f.Bits {
				bits[BitPos{b.Frame, b.Bit}] = true
			}
		}

		tiles.AppendRow([]interface{}{ts.Tile, len(ts.Features), len(bits), len(ts.Defaults)})
	}

	sb.WriteString(tiles.Render())
	sb.WriteString("\n")

	return sb.String()
}
