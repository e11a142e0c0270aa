package fabric

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/util"
)

// Parameters that older fabric files carry and that do not affect the
// generated artifacts.
var ignoredParams = map[string]bool{
	"Package":                     true,
	"GenerateDelayInSwitchMatrix": true,
	"MultiplexerStyle":            true,
	"SuperTileEnable":             true,
}

type line struct {
	no     int
	fields []string
}

// readLines returns the non-empty lines of a description file with
// comments removed and fields trimmed.
func readLines(path string) ([]line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var lines []line

	scanner := bufio.NewScanner(f)
	no := 0
	for scanner.Scan() {
		no++

		text := scanner.Text()
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}

		fields := strings.Split(text, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		for len(fields) > 0 && fields[len(fields)-1] == "" {
			fields = fields[:len(fields)-1]
		}

		if len(fields) == 0 || fields[0] == "" {
			continue
		}

		lines = append(lines, line{no: no, fields: fields})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	return lines, nil
}

func isEmptyCell(s string) bool {
	return s == "" || s == "NULL" || s == "Null" || s == "None"
}

func sourceRef(path string, l line) string {
	return path + ":" + strconv.Itoa(l.no)
}

// Load reads a fabric CSV file together with every tile, Bel, and super tile
// file it references.
func Load(path string) (*Fabric, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	params := Params{
		Name:          "eFPGA",
		Layout:        DefaultLayout,
		ConfigBitMode: FrameBased,
		MuxEncoding:   OneHot,
	}

	var (
		grid       [][]string
		tiles      []*Tile
		superTiles []*SuperTile
		superFiles []string
		section    string
		sawGrid    bool
		sawParams  bool
	)

	// Tiles declared inline in the fabric file are still accepted.
	inline, err := parseTiles(path, lines)
	if err != nil {
		return nil, err
	}

	tiles = append(tiles, inline...)

	for _, l := range lines {
		key := l.fields[0]

		switch key {
		case "FabricBegin", "ParametersBegin":
			section = key
			continue
		case "FabricEnd":
			sawGrid = true
			section = ""
			continue
		case "ParametersEnd":
			sawParams = true
			section = ""
			continue
		}

		switch section {
		case "FabricBegin":
			row := make([]string, 0, len(l.fields))
			for _, cell := range l.fields {
				if isEmptyCell(cell) {
					row = append(row, "")
				} else {
					row = append(row, cell)
				}
			}

			grid = append(grid, row)
		case "ParametersBegin":
			loaded, superFile, err := applyParam(&params, dir, path, l)
			if err != nil {
				return nil, err
			}

			tiles = append(tiles, loaded...)
			if superFile != "" {
				superFiles = append(superFiles, superFile)
			}
		}
	}

	if !sawGrid {
		return nil, NewModelError(path, "fabric",
			"cannot find FabricBegin and FabricEnd")
	}

	if !sawParams {
		return nil, NewModelError(path, "fabric",
			"cannot find ParametersBegin and ParametersEnd")
	}

	byName := make(map[string]*Tile, len(tiles))
	for _, t := range tiles {
		if prev, dup := byName[t.name]; dup {
			return nil, NewModelError(t.source, "tile "+t.name,
				"tile already declared in %s", prev.source)
		}

		byName[t.name] = t
	}

	for _, sf := range superFiles {
		loaded, err := LoadSuperTiles(sf, byName)
		if err != nil {
			return nil, err
		}

		superTiles = append(superTiles, loaded...)
	}

	f, err := NewFabric(params, grid, tiles, superTiles)
	if err != nil {
		if me, ok := err.(*ModelError); ok && me.Source == "" {
			me.Source = path
		}

		return nil, err
	}

	f.source = path

	slog.Info("Fabric loaded",
		"fabric", f.Name(),
		"rows", f.Rows(),
		"columns", f.Columns(),
		"tiles", len(f.UsedTileNames()))

	return f, nil
}

func applyParam(p *Params, dir, path string, l line) ([]*Tile, string, error) {
	src := sourceRef(path, l)
	key := l.fields[0]

	if len(l.fields) < 2 {
		return nil, "", NewModelError(src, "parameters",
			"parameter %s has no value", key)
	}

	value := l.fields[1]

	switch key {
	case "Tile":
		tiles, err := LoadTiles(filepath.Join(dir, value))
		return tiles, "", err
	case "Supertile":
		return nil, filepath.Join(dir, value), nil
	case "Name":
		p.Name = value
	case "FrameBitsPerRow", "MaxFramesPerCol":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, "", NewModelError(src, "parameters",
				"%s must be a positive integer, got %q", key, value)
		}

		if key == "FrameBitsPerRow" {
			p.Layout.FrameBitsPerRow = n
		} else {
			p.Layout.MaxFramesPerCol = n
		}
	case "ConfigBitMode":
		m, err := ParseConfigBitMode(value)
		if err != nil {
			return nil, "", NewModelError(src, "parameters", "%v", err)
		}

		p.ConfigBitMode = m
	case "MuxEncoding":
		e, err := ParseMuxEncoding(value)
		if err != nil {
			return nil, "", NewModelError(src, "parameters", "%v", err)
		}

		p.MuxEncoding = e
	default:
		if !ignoredParams[key] {
			return nil, "", NewModelError(src, "parameters",
				"unknown parameter %s", key)
		}

		util.Trace("Ignoring fabric parameter", "param", key, "value", value)
	}

	return nil, "", nil
}

// LoadTiles reads every TILE block of a tile CSV file.
func LoadTiles(path string) ([]*Tile, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	tiles, err := parseTiles(path, lines)
	if err != nil {
		return nil, err
	}

	dirName := filepath.Base(filepath.Dir(path))
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if dirName == stem {
		for _, t := range tiles {
			if t.name != dirName {
				return nil, NewModelError(path, "tile "+t.name,
					"tile is declared in the folder of tile %s", dirName)
			}
		}
	}

	return tiles, nil
}

func parseTiles(path string, lines []line) ([]*Tile, error) {
	var (
		tiles   []*Tile
		current *tileDraft
	)

	dir := filepath.Dir(path)

	for _, l := range lines {
		src := sourceRef(path, l)
		key := l.fields[0]

		switch {
		case key == "TILE":
			if current != nil {
				return nil, NewModelError(src, "tile "+current.name,
					"missing EndTILE")
			}

			if len(l.fields) < 2 {
				return nil, NewModelError(src, "tile", "TILE without a name")
			}

			current = &tileDraft{name: l.fields[1], source: path}
		case key == "EndTILE":
			if current == nil {
				return nil, NewModelError(src, "tile", "EndTILE without TILE")
			}

			t, err := current.build()
			if err != nil {
				return nil, err
			}

			tiles = append(tiles, t)
			current = nil
		case current == nil:
			continue
		default:
			if err := current.addLine(dir, src, l.fields); err != nil {
				return nil, err
			}
		}
	}

	if current != nil {
		return nil, NewModelError(path, "tile "+current.name, "missing EndTILE")
	}

	return tiles, nil
}

type tileDraft struct {
	name       string
	source     string
	ports      []Port
	bels       []Bel
	matrixPath string
}

func (d *tileDraft) addLine(dir, src string, fields []string) error {
	entity := "tile " + d.name

	switch fields[0] {
	case "NORTH", "EAST", "SOUTH", "WEST", "JUMP":
		ports, err := parsePortLine(fields)
		if err != nil {
			return NewModelError(src, entity, "%v", err)
		}

		d.ports = append(d.ports, ports...)
	case "BEL":
		if len(fields) < 2 {
			return NewModelError(src, entity, "BEL without a file")
		}

		prefix := ""
		if len(fields) > 2 {
			prefix = fields[2]
		}

		b, err := LoadBel(filepath.Join(dir, fields[1]), prefix)
		if err != nil {
			return err
		}

		d.bels = append(d.bels, b)
	case "MATRIX":
		if len(fields) < 2 {
			return NewModelError(src, entity, "MATRIX without a file")
		}

		if d.matrixPath != "" {
			return NewModelError(src, entity, "more than one MATRIX")
		}

		d.matrixPath = filepath.Join(dir, fields[1])
	case "INCLUDE":
		if len(fields) < 2 {
			return NewModelError(src, entity, "INCLUDE without a file")
		}

		inc := filepath.Join(dir, fields[1])
		lines, err := readLines(inc)
		if err != nil {
			return NewModelError(src, entity, "%v", err)
		}

		for _, l := range lines {
			ports, err := parsePortLine(l.fields)
			if err != nil {
				return NewModelError(sourceRef(inc, l), entity, "%v", err)
			}

			d.ports = append(d.ports, ports...)
		}
	default:
		return NewModelError(src, entity,
			"unknown tile description %s", fields[0])
	}

	return nil
}

func (d *tileDraft) build() (*Tile, error) {
	if d.matrixPath == "" {
		return nil, NewModelError(d.source, "tile "+d.name,
			"tile has no MATRIX declaration")
	}

	t := &Tile{
		name:       d.name,
		ports:      d.ports,
		bels:       d.bels,
		matrixPath: d.matrixPath,
		source:     d.source,
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	util.Trace("Tile parsed",
		"tile", t.name, "ports", len(t.ports), "bels", len(t.bels))

	return t, nil
}

func parsePortLine(fields []string) ([]Port, error) {
	if len(fields) < 6 {
		return nil, errors.Errorf("port line needs 6 fields, got %d", len(fields))
	}

	dir, err := ParseDirection(fields[0])
	if err != nil {
		return nil, err
	}

	dx, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, errors.Errorf("invalid x offset %q", fields[2])
	}

	dy, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, errors.Errorf("invalid y offset %q", fields[3])
	}

	wires, err := strconv.Atoi(fields[5])
	if err != nil || wires <= 0 {
		return nil, errors.Errorf("invalid wire count %q", fields[5])
	}

	if fields[1] == NullName && fields[4] == NullName {
		return nil, errors.New("both ends of the wire are NULL")
	}

	return NewPortPair(dir, fields[1], dx, dy, fields[4], wires), nil
}

// LoadSuperTiles reads the SuperTILE blocks of a file. Sub-tiles are
// resolved against tiles.
func LoadSuperTiles(path string, tiles map[string]*Tile) ([]*SuperTile, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	var (
		result []*SuperTile
		name   string
		grid   [][]*Tile
		open   bool
	)

	for _, l := range lines {
		src := sourceRef(path, l)

		switch l.fields[0] {
		case "SuperTILE":
			if open {
				return nil, NewModelError(src, "supertile "+name,
					"missing EndSuperTILE")
			}

			if len(l.fields) < 2 {
				return nil, NewModelError(src, "supertile",
					"SuperTILE without a name")
			}

			name, grid, open = l.fields[1], nil, true
		case "EndSuperTILE":
			if !open {
				return nil, NewModelError(src, "supertile",
					"EndSuperTILE without SuperTILE")
			}

			st, err := NewSuperTile(name, grid)
			if err != nil {
				if me, ok := err.(*ModelError); ok {
					me.Source = path
				}

				return nil, err
			}

			st.source = path
			result = append(result, st)
			open = false
		default:
			if !open {
				continue
			}

			row := make([]*Tile, 0, len(l.fields))
			for _, cell := range l.fields {
				if isEmptyCell(cell) {
					row = append(row, nil)
					continue
				}

				t, ok := tiles[cell]
				if !ok {
					return nil, NewModelError(src, "supertile "+name,
						"unknown tile %s", cell)
				}

				row = append(row, t)
			}

			grid = append(grid, row)
		}
	}

	if open {
		return nil, NewModelError(path, "supertile "+name,
			"missing EndSuperTILE")
	}

	return result, nil
}
