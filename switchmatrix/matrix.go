package switchmatrix

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/util"
)

// Constants are sources that every switch matrix provides.
var Constants = []string{"GND", "GND0", "VCC", "VCC0", "VDD", "VDD0", "0", "1"}

// IsConstant reports whether a source is a tie-off.
func IsConstant(name string) bool {
	for _, c := range Constants {
		if c == name {
			return true
		}
	}

	return false
}

// ConstantValue returns the logic level of a constant source.
func ConstantValue(name string) bool {
	return strings.HasPrefix(name, "VCC") || strings.HasPrefix(name, "VDD") ||
		name == "1"
}

// A Mux selects one of its sources for a destination.
type Mux struct {
	Dest       string
	Sources    []string
	ConfigBits int
	Encoding   fabric.MuxEncoding
}

// Fixed reports whether the destination has a single source and therefore
// needs no configuration.
func (m Mux) Fixed() bool {
	return len(m.Sources) == 1
}

// SelectPattern returns the configuration bits that connect source i.
func (m Mux) SelectPattern(i int) []bool {
	pattern := make([]bool, m.ConfigBits)

	switch m.Encoding {
	case fabric.OneHot:
		if i < len(pattern) {
			pattern[i] = true
		}
	case fabric.Binary:
		for k := range pattern {
			pattern[k] = (i>>uint(k))&1 == 1
		}
	default:
		panic("invalid mux encoding")
	}

	return pattern
}

// BitCount returns the number of configuration bits of a mux with n
// sources.
func BitCount(n int, enc fabric.MuxEncoding) int {
	if n <= 1 {
		return 0
	}

	switch enc {
	case fabric.OneHot:
		return n
	case fabric.Binary:
		return bits.Len(uint(n - 1))
	default:
		panic("invalid mux encoding")
	}
}

// A Matrix is the synthesized switch matrix of one tile type.
type Matrix struct {
	Tile     string
	Encoding fabric.MuxEncoding
	// Inputs are the signals entering the matrix, tile input pins first,
	// then Bel outputs.
	Inputs []string
	// Outputs are the signals the matrix drives, tile output pins first,
	// then Bel inputs.
	Outputs []string
	Muxes   []Mux
}

// TotalBits is the number of configuration bits of all muxes.
func (m *Matrix) TotalBits() int {
	n := 0
	for _, mux := range m.Muxes {
		n += mux.ConfigBits
	}

	return n
}

// Mux returns the mux of a destination.
func (m *Matrix) Mux(dest string) (Mux, bool) {
	for _, mux := range m.Muxes {
		if mux.Dest == dest {
			return mux, true
		}
	}

	return Mux{}, false
}

// BitName names the i-th configuration bit of a mux.
func BitName(dest string, i int) string {
	return fmt.Sprintf("%s.%d", dest, i)
}

// Endpoints returns the matrix inputs and outputs of a tile.
func Endpoints(t *fabric.Tile) (inputs, outputs []string) {
	for _, p := range t.Ports() {
		if p.IO == fabric.Input {
			inputs = append(inputs, p.SwitchPins()...)
		} else {
			outputs = append(outputs, p.SwitchPins()...)
		}
	}

	for _, b := range t.Bels() {
		for _, pin := range b.RoutedOutputs() {
			inputs = append(inputs, b.PinName(pin))
		}

		for _, pin := range b.RoutedInputs() {
			outputs = append(outputs, b.PinName(pin))
		}
	}

	return inputs, outputs
}

// Synthesize builds the muxes of a tile from its connectivity. Muxes appear
// in the order their destinations were first declared and keep the declared
// source order.
func Synthesize(
	t *fabric.Tile,
	conn *Connectivity,
	enc fabric.MuxEncoding,
) (*Matrix, error) {
	m := &Matrix{Tile: t.Name(), Encoding: enc}
	m.Inputs, m.Outputs = Endpoints(t)

	isInput := make(map[string]bool, len(m.Inputs))
	for _, in := range m.Inputs {
		isInput[in] = true
	}

	isOutput := make(map[string]bool, len(m.Outputs))
	for _, out := range m.Outputs {
		isOutput[out] = true
	}

	source := t.MatrixPath()
	entity := "tile " + t.Name()

	routed := make(map[string]bool)
	for _, r := range conn.Routes() {
		if !isOutput[r.Dest] {
			return nil, fabric.NewModelError(source, entity,
				"unknown destination %s", r.Dest)
		}

		for _, s := range r.Sources {
			if !isInput[s] && !IsConstant(s) {
				return nil, fabric.NewModelError(source, entity,
					"unknown source %s for %s", s, r.Dest)
			}
		}

		routed[r.Dest] = true
		m.Muxes = append(m.Muxes, Mux{
			Dest:       r.Dest,
			Sources:    r.Sources,
			ConfigBits: BitCount(len(r.Sources), enc),
			Encoding:   enc,
		})
	}

	var missing []string
	for _, out := range m.Outputs {
		if !routed[out] {
			missing = append(missing, out)
		}
	}

	if len(missing) > 0 {
		return nil, &NoRouteError{Tile: t.Name(), Pins: missing}
	}

	util.Trace("Switch matrix synthesized",
		"tile", t.Name(), "muxes", len(m.Muxes), "bits", m.TotalBits())

	return m, nil
}

// NoRouteError reports destinations that have no candidate source.
type NoRouteError struct {
	Tile string
	Pins []string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("tile %s: no route to %s", e.Tile, strings.Join(e.Pins, ", "))
}
