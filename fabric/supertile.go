package fabric

// A Link connects an output port of one sub-tile to the input port of the
// neighbour it lands on.
type Link struct {
	FromX, FromY int
	ToX, ToY     int
	Output       Port
	Input        Port
}

// A SuperTile groups several tile types into one composite. Ports between
// sub-tiles are internal, everything else is visible at the boundary.
type SuperTile struct {
	name   string
	grid   [][]*Tile
	source string
}

// NewSuperTile creates a super tile from its sub-tile arrangement. grid is
// indexed [y][x]; nil entries are holes.
func NewSuperTile(name string, grid [][]*Tile) (*SuperTile, error) {
	st := &SuperTile{name: name}

	for _, row := range grid {
		st.grid = append(st.grid, append([]*Tile(nil), row...))
	}

	if err := st.validate(); err != nil {
		return nil, err
	}

	return st, nil
}

// Name returns the super tile name.
func (s *SuperTile) Name() string {
	return s.name
}

// Rows returns the height of the arrangement.
func (s *SuperTile) Rows() int {
	return len(s.grid)
}

// Columns returns the width of the arrangement.
func (s *SuperTile) Columns() int {
	if len(s.grid) == 0 {
		return 0
	}

	return len(s.grid[0])
}

// TileAt returns the sub-tile at (x, y), or nil for a hole.
func (s *SuperTile) TileAt(x, y int) *Tile {
	if y < 0 || y >= len(s.grid) || x < 0 || x >= len(s.grid[y]) {
		return nil
	}

	return s.grid[y][x]
}

// Tiles returns the distinct sub-tiles in row-major order of first use.
func (s *SuperTile) Tiles() []*Tile {
	var tiles []*Tile
	seen := make(map[*Tile]bool)

	for _, row := range s.grid {
		for _, t := range row {
			if t != nil && !seen[t] {
				seen[t] = true
				tiles = append(tiles, t)
			}
		}
	}

	return tiles
}

func (s *SuperTile) lands(x, y int, p Port) (int, int, bool) {
	if p.Direction == Jump {
		return x, y, false
	}

	tx, ty := p.Adjacent(x, y)
	if s.TileAt(tx, ty) == nil {
		return tx, ty, false
	}

	return tx, ty, true
}

// InternalLinks lists the output ports that land on another sub-tile.
// Matching happens on the first hop, so multi-span wires count as internal
// when their first neighbour is part of the super tile.
func (s *SuperTile) InternalLinks() []Link {
	var links []Link

	for y, row := range s.grid {
		for x, t := range row {
			if t == nil {
				continue
			}

			for _, p := range t.ports {
				if p.IO != Output {
					continue
				}

				tx, ty, ok := s.lands(x, y, p)
				if !ok {
					continue
				}

				link := Link{FromX: x, FromY: y, ToX: tx, ToY: ty, Output: p}
				if in, found := s.TileAt(tx, ty).InputFor(p); found {
					link.Input = in
				}

				links = append(links, link)
			}
		}
	}

	return links
}

// ExternalPorts returns, for the sub-tile at (x, y), the ports that stay
// visible at the super tile boundary.
func (s *SuperTile) ExternalPorts(x, y int) []Port {
	t := s.TileAt(x, y)
	if t == nil {
		return nil
	}

	var ports []Port
	for _, p := range t.ports {
		if !s.isInternal(x, y, p) {
			ports = append(ports, p)
		}
	}

	return ports
}

// InternalPorts returns the ports of the sub-tile at (x, y) that connect
// to a neighbouring sub-tile.
func (s *SuperTile) InternalPorts(x, y int) []Port {
	t := s.TileAt(x, y)
	if t == nil {
		return nil
	}

	var ports []Port
	for _, p := range t.ports {
		if s.isInternal(x, y, p) {
			ports = append(ports, p)
		}
	}

	return ports
}

func (s *SuperTile) isInternal(x, y int, p Port) bool {
	if p.IO == Output {
		_, _, ok := s.lands(x, y, p)
		return ok
	}

	if p.Direction == Jump {
		return false
	}

	fx, fy := p.Upstream(x, y)

	return s.TileAt(fx, fy) != nil
}

func (s *SuperTile) validate() error {
	entity := "supertile " + s.name

	if len(s.grid) == 0 {
		return NewModelError(s.source, entity, "empty super tile")
	}

	for _, row := range s.grid {
		if len(row) != len(s.grid[0]) {
			return NewModelError(s.source, entity, "rows have different lengths")
		}
	}

	for _, l := range s.InternalLinks() {
		if l.Input.Name == "" {
			return NewModelError(s.source, entity,
				"port %s of X%dY%d has no partner in X%dY%d",
				l.Output.Name, l.FromX, l.FromY, l.ToX, l.ToY)
		}

		if l.Input.Width() != l.Output.Width() {
			return NewModelError(s.source, entity,
				"bus width mismatch between %s (%d) and %s (%d)",
				l.Output.Name, l.Output.Width(), l.Input.Name,
				l.Input.Width())
		}
	}

	return nil
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
