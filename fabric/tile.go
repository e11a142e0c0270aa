package fabric

import "fmt"

// A Tile is a tile type. One template is shared by every grid cell that
// references it and is never modified after load.
type Tile struct {
	name       string
	ports      []Port
	bels       []Bel
	matrixPath string
	source     string
}

// NewTile creates a tile type after checking that ports and Bels are unique.
func NewTile(name string, ports []Port, bels []Bel, matrixPath string) (*Tile, error) {
	t := &Tile{
		name:       name,
		matrixPath: matrixPath,
		ports:      append([]Port(nil), ports...),
	}

	for _, b := range bels {
		t.bels = append(t.bels, b.clone())
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Tile) validate() error {
	entity := "tile " + t.name

	if t.name == "" {
		return NewModelError(t.source, "tile", "missing tile name")
	}

	type portKey struct {
		name string
		side Side
		io   IO
	}

	// pins maps every switch matrix endpoint name to its owner.
	pins := make(map[string]string)

	seen := make(map[portKey]bool)
	for _, p := range t.ports {
		k := portKey{p.Name, p.Side, p.IO}
		if seen[k] {
			return NewModelError(t.source, entity,
				"duplicate port %s on side %s", p.Name, p.Side)
		}

		seen[k] = true

		if p.WireCount <= 0 {
			return NewModelError(t.source, entity,
				"port %s has wire count %d", p.Name, p.WireCount)
		}

		owner := fmt.Sprintf("port %s (%s %s)", p.Name, p.Side, p.IO)
		for _, pin := range p.SwitchPins() {
			if other, ok := pins[pin]; ok {
				return NewModelError(t.source, entity,
					"switch pin %s of %s clashes with %s", pin, owner, other)
			}

			pins[pin] = owner
		}
	}

	instances := make(map[string]bool)
	for _, b := range t.bels {
		inst := b.Instance()
		if instances[inst] {
			return NewModelError(t.source, entity,
				"duplicate bel instance %s", inst)
		}

		instances[inst] = true

		for _, pin := range append(append([]string(nil), b.Inputs...), b.Outputs...) {
			if b.Flag(pin).Shared {
				continue
			}

			name := b.PinName(pin)
			if owner, ok := pins[name]; ok {
				return NewModelError(t.source, entity,
					"bel pin %s of %s clashes with %s", name, inst, owner)
			}

			pins[name] = inst
		}
	}

	return nil
}

// Name returns the tile type name.
func (t *Tile) Name() string {
	return t.name
}

// Source returns the file the tile was declared in.
func (t *Tile) Source() string {
	return t.source
}

// MatrixPath returns the path of the connectivity declaration.
func (t *Tile) MatrixPath() string {
	return t.matrixPath
}

// Ports returns a copy of the ordered port list.
func (t *Tile) Ports() []Port {
	return append([]Port(nil), t.ports...)
}

// PortsOnSide returns the ports located on one side, in declaration order.
func (t *Tile) PortsOnSide(side Side) []Port {
	var ports []Port
	for _, p := range t.ports {
		if p.Side == side {
			ports = append(ports, p)
		}
	}

	return ports
}

// Bels returns a copy of the ordered Bel list.
func (t *Tile) Bels() []Bel {
	bels := make([]Bel, len(t.bels))
	for i, b := range t.bels {
		bels[i] = b.clone()
	}

	return bels
}

// BelConfigBits is the number of configuration bits the Bels consume.
func (t *Tile) BelConfigBits() int {
	n := 0
	for _, b := range t.bels {
		n += b.ConfigBits
	}

	return n
}

// InputFor returns the input port that receives the output bus out of a
// neighbouring tile.
func (t *Tile) InputFor(out Port) (Port, bool) {
	for _, p := range t.ports {
		if p.IO == Input && p.Direction == out.Direction &&
			p.SourceName == out.Name {
			return p, true
		}
	}

	return Port{}, false
}

// OutputFor returns the output port that drives the input bus in of a
// neighbouring tile.
func (t *Tile) OutputFor(in Port) (Port, bool) {
	for _, p := range t.ports {
		if p.IO == Output && p.Direction == in.Direction &&
			p.Name == in.SourceName {
			return p, true
		}
	}

	return Port{}, false
}
