package hdl

import (
	"fmt"

	"github.com/sarchlab/fabgen/configmem"
	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/switchmatrix"
)

// Cell library modules the generated netlists instantiate.
const (
	MuxModule   = "fabgen_mux"
	LatchModule = "LHQD1"
)

// Frame port names of every tile.
const (
	FrameData   = "FrameData"
	FrameStrobe = "FrameStrobe"
	ConfigBits  = "ConfigBits"
	// ConfigBitsN carries the inverted configuration bits.
	ConfigBitsN = "ConfigBits_N"
)

// SwitchMatrixName is the module name of a tile's switch matrix.
func SwitchMatrixName(tile string) string {
	return tile + "_switch_matrix"
}

// ConfigMemName is the module name of a tile's configuration memory.
func ConfigMemName(tile string) string {
	return tile + "_ConfigMem"
}

func constExpr(name string) Expr {
	if switchmatrix.ConstantValue(name) {
		return Const{Width: 1, Value: 1}
	}

	return Const{Width: 1}
}

func sourceExpr(name string) Expr {
	if switchmatrix.IsConstant(name) {
		return constExpr(name)
	}

	return Ref{Name: name}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// SwitchMatrixModule describes the switch matrix of a tile. Every matrix
// pin is a scalar port. A destination with several sources gets a
// fabgen_mux whose select lines are a slice of ConfigBits; a fixed
// connection is a plain assignment.
func SwitchMatrixModule(t *fabric.Tile, m *switchmatrix.Matrix) []Request {
	mod := Module{Name: SwitchMatrixName(t.Name())}

	for _, pin := range m.Inputs {
		mod.Ports = append(mod.Ports, Scalar(pin, In))
	}

	for _, pin := range m.Outputs {
		mod.Ports = append(mod.Ports, Scalar(pin, Out))
	}

	total := m.TotalBits()
	if total > 0 {
		mod.Ports = append(mod.Ports, Bus(ConfigBits, In, total))
	}

	reqs := []Request{mod}
	offset := 0

	for _, mux := range m.Muxes {
		if mux.Fixed() {
			reqs = append(reqs, Assign{
				Target: Ref{Name: mux.Dest},
				Value:  sourceExpr(mux.Sources[0]),
			})

			continue
		}

		input := mux.Dest + "_input"
		parts := make([]Expr, len(mux.Sources))

		for i, src := range mux.Sources {
			parts[len(parts)-1-i] = sourceExpr(src)
		}

		reqs = append(reqs,
			Signal{Name: input, Width: len(mux.Sources), Vector: true},
			Assign{Target: Ref{Name: input}, Value: Concat{Parts: parts}},
			Instance{
				Module: MuxModule,
				Name:   "inst_" + mux.Dest,
				Params: []Param{
					{Name: "N", Value: len(mux.Sources)},
					{Name: "S", Value: mux.ConfigBits},
					{Name: "ONEHOT", Value: boolToInt(mux.Encoding == fabric.OneHot)},
				},
				Ports: []PortMap{
					{Formal: "I", Actual: Ref{Name: input}},
					{Formal: "S", Actual: Slice{
						Name: ConfigBits,
						Hi:   offset + mux.ConfigBits - 1,
						Lo:   offset,
					}},
					{Formal: "O", Actual: Ref{Name: mux.Dest}},
				},
			},
		)

		offset += mux.ConfigBits
	}

	return reqs
}

// ConfigMemModule describes the latches that hold a tile's configuration.
// The latch of frame f, bit b captures FrameData[b] while FrameStrobe[f] is
// high and drives the logical bit the table maps it to.
func ConfigMemModule(table *configmem.Table) []Request {
	layout := table.Layout

	mod := Module{
		Name: ConfigMemName(table.Tile),
		Ports: []Port{
			Bus(FrameData, In, layout.FrameBitsPerRow),
			Bus(FrameStrobe, In, layout.MaxFramesPerCol),
		},
	}

	if table.TotalBits > 0 {
		mod.Ports = append(mod.Ports,
			Bus(ConfigBits, Out, table.TotalBits),
			Bus(ConfigBitsN, Out, table.TotalBits),
		)
	}

	reqs := []Request{mod}

	for _, e := range table.Entries {
		for k := 0; k < e.Width; k++ {
			logical := e.Logical + k

			if e.Frame >= layout.MaxFramesPerCol {
				reqs = append(reqs,
					Comment{Text: fmt.Sprintf(
						"config bit %d lies in frame %d beyond the column strobe",
						logical, e.Frame)},
					Assign{Target: Index{Name: ConfigBits, Index: logical}, Value: Const{Width: 1}},
					Assign{Target: Index{Name: ConfigBitsN, Index: logical}, Value: Const{Width: 1, Value: 1}},
				)

				continue
			}

			reqs = append(reqs, Instance{
				Module: LatchModule,
				Name:   fmt.Sprintf("Inst_frame%d_bit%d", e.Frame, e.Bit+k),
				Ports: []PortMap{
					{Formal: "D", Actual: Index{Name: FrameData, Index: e.Bit + k}},
					{Formal: "E", Actual: Index{Name: FrameStrobe, Index: e.Frame}},
					{Formal: "Q", Actual: Index{Name: ConfigBits, Index: logical}},
					{Formal: "QN", Actual: Index{Name: ConfigBitsN, Index: logical}},
				},
			})
		}
	}

	return reqs
}

// A tilePin is one port of a tile module.
type tilePin struct {
	Port
	// Bus is the wire declaration behind the port, nil for Bel pins and
	// frame ports.
	Bus *fabric.Port
	// Shared pins are connected once per enclosing module.
	Shared bool
	Frame  bool
}

// tileInterface lists the ports of a tile module: wire buses in
// declaration order, external Bel pins, shared Bel pins, then the frame
// ports.
func tileInterface(t *fabric.Tile, layout fabric.Layout) []tilePin {
	var pins []tilePin

	for _, p := range t.Ports() {
		if p.Direction == fabric.Jump {
			continue
		}

		dir := In
		if p.IO == fabric.Output {
			dir = Out
		}

		bus := p
		pins = append(pins, tilePin{Port: Bus(p.Name, dir, p.Width()), Bus: &bus})
	}

	bels := t.Bels()

	for _, b := range bels {
		for _, pin := range b.Inputs {
			if f := b.Flag(pin); f.External && !f.Shared {
				pins = append(pins, tilePin{Port: Scalar(b.PinName(pin), In)})
			}
		}

		for _, pin := range b.Outputs {
			if f := b.Flag(pin); f.External && !f.Shared {
				pins = append(pins, tilePin{Port: Scalar(b.PinName(pin), Out)})
			}
		}
	}

	seen := make(map[string]bool)

	for _, b := range bels {
		add := func(pin string, dir Dir) {
			if !b.Flag(pin).Shared || seen[pin] {
				return
			}

			seen[pin] = true
			pins = append(pins, tilePin{Port: Scalar(pin, dir), Shared: true})
		}

		for _, pin := range b.Inputs {
			add(pin, In)
		}

		for _, pin := range b.Outputs {
			add(pin, Out)
		}
	}

	return append(pins,
		tilePin{Port: Bus(FrameData, In, layout.FrameBitsPerRow), Frame: true},
		tilePin{Port: Bus(FrameStrobe, In, layout.MaxFramesPerCol), Frame: true},
	)
}

// TileModule describes the tile wrapper: it rotates multi-span wires,
// joins jump wires, and instantiates the Bels, the switch matrix and the
// ConfigMem. Configuration bits are numbered Bel bits first, then mux
// bits.
func TileModule(
	t *fabric.Tile,
	m *switchmatrix.Matrix,
	layout fabric.Layout,
) []Request {
	mod := Module{Name: t.Name()}
	for _, p := range tileInterface(t, layout) {
		mod.Ports = append(mod.Ports, p.Port)
	}

	reqs := []Request{mod}

	belBits := t.BelConfigBits()
	total := belBits + m.TotalBits()

	if total > 0 {
		reqs = append(reqs,
			Signal{Name: ConfigBits, Width: total, Vector: true},
			Signal{Name: ConfigBitsN, Width: total, Vector: true},
		)
	}

	bels := t.Bels()

	for _, b := range bels {
		for _, pin := range b.RoutedInputs() {
			reqs = append(reqs, Signal{Name: b.PinName(pin), Width: 1})
		}

		for _, pin := range b.RoutedOutputs() {
			reqs = append(reqs, Signal{Name: b.PinName(pin), Width: 1})
		}
	}

	pinExpr := make(map[string]Expr)

	for _, p := range t.Ports() {
		if p.Direction == fabric.Jump {
			reqs = append(reqs, Signal{Name: p.Name, Width: p.Width(), Vector: true})
		}

		for i, pin := range p.SwitchPins() {
			pinExpr[pin] = Index{Name: p.Name, Index: p.BusIndex(i)}
		}
	}

	reqs = append(reqs, wireStatements(t)...)

	offset := 0

	for _, b := range bels {
		reqs = append(reqs, belInstance(b, offset))
		offset += b.ConfigBits
	}

	sm := Instance{
		Module: SwitchMatrixName(t.Name()),
		Name:   "Inst_" + SwitchMatrixName(t.Name()),
	}

	for _, pin := range append(append([]string(nil), m.Inputs...), m.Outputs...) {
		actual, ok := pinExpr[pin]
		if !ok {
			actual = Ref{Name: pin}
		}

		sm.Ports = append(sm.Ports, PortMap{Formal: pin, Actual: actual})
	}

	if m.TotalBits() > 0 {
		sm.Ports = append(sm.Ports, PortMap{
			Formal: ConfigBits,
			Actual: Slice{Name: ConfigBits, Hi: total - 1, Lo: belBits},
		})
	}

	reqs = append(reqs, sm)

	if total > 0 {
		reqs = append(reqs, Instance{
			Module: ConfigMemName(t.Name()),
			Name:   "Inst_" + ConfigMemName(t.Name()),
			Ports: []PortMap{
				{Formal: FrameData, Actual: Ref{Name: FrameData}},
				{Formal: FrameStrobe, Actual: Ref{Name: FrameStrobe}},
				{Formal: ConfigBits, Actual: Ref{Name: ConfigBits}},
				{Formal: ConfigBitsN, Actual: Ref{Name: ConfigBitsN}},
			},
		})
	}

	return reqs
}

// wireStatements rotates the pass-through slices of multi-span buses and
// drives jump inputs from their jump outputs.
func wireStatements(t *fabric.Tile) []Request {
	var reqs []Request

	for _, p := range t.Ports() {
		switch {
		case p.IO == fabric.Output && p.Direction != fabric.Jump && p.Span() > 1:
			hi, lo := p.Width()-1, p.WireCount
			target := Slice{Name: p.Name, Hi: hi, Lo: lo}

			in, ok := t.InputFor(p)
			if !ok {
				reqs = append(reqs, Assign{
					Target: target,
					Value:  Const{Width: hi - lo + 1},
				})

				continue
			}

			reqs = append(reqs, Assign{
				Target: target,
				Value:  Slice{Name: in.Name, Hi: hi - lo, Lo: 0},
			})
		case p.IO == fabric.Input && p.Direction == fabric.Jump:
			out, ok := t.OutputFor(p)
			if !ok {
				reqs = append(reqs, Assign{
					Target: Ref{Name: p.Name},
					Value:  Const{Width: p.Width()},
				})

				continue
			}

			reqs = append(reqs, Assign{
				Target: Ref{Name: p.Name},
				Value:  Ref{Name: out.Name},
			})
		}
	}

	return reqs
}

func belInstance(b fabric.Bel, offset int) Instance {
	inst := Instance{Module: b.Name, Name: "Inst_" + b.Instance()}
	bits := Slice{Name: ConfigBits, Hi: offset + b.ConfigBits - 1, Lo: offset}

	global, hasGlobal := b.GlobalPort()

	for _, pin := range b.Inputs {
		if hasGlobal && pin == global {
			inst.Ports = append(inst.Ports, PortMap{Formal: pin, Actual: bits})
			continue
		}

		inst.Ports = append(inst.Ports, PortMap{Formal: pin, Actual: Ref{Name: b.PinName(pin)}})
	}

	for _, pin := range b.Outputs {
		inst.Ports = append(inst.Ports, PortMap{Formal: pin, Actual: Ref{Name: b.PinName(pin)}})
	}

	if !hasGlobal && b.ConfigBits > 0 {
		inst.Ports = append(inst.Ports, PortMap{Formal: ConfigBits, Actual: bits})
	}

	return inst
}

// TileFile bundles the modules of one tile type: switch matrix, ConfigMem
// (when the tile has configuration bits) and the tile wrapper.
func TileFile(
	t *fabric.Tile,
	m *switchmatrix.Matrix,
	table *configmem.Table,
) []Request {
	reqs := SwitchMatrixModule(t, m)

	if table.TotalBits > 0 {
		reqs = append(reqs, ConfigMemModule(table)...)
	}

	return append(reqs, TileModule(t, m, table.Layout)...)
}
