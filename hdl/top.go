package hdl

import (
	"fmt"

	"github.com/sarchlab/fabgen/fabric"
)

// TilePrefix names the signals that belong to the tile at (x, y).
func TilePrefix(x, y int) string {
	return fmt.Sprintf("Tile_X%dY%d", x, y)
}

// RowFrameData is the frame data bus shared by the tiles of row y.
func RowFrameData(y int) string {
	return fmt.Sprintf("Row_Y%d_FrameData", y)
}

// ColumnFrameStrobe is the frame strobe bus shared by the tiles of
// column x.
func ColumnFrameStrobe(x int) string {
	return fmt.Sprintf("Column_X%d_FrameStrobe", x)
}

func prefixed(x, y int, name string) string {
	return TilePrefix(x, y) + "_" + name
}

// SuperTileModule describes a super tile wrapper. Buses between sub-tiles
// become internal signals; every other bus, every external Bel pin and the
// frame ports of each sub-tile are exposed with a Tile_X<x>Y<y>_ prefix.
func SuperTileModule(st *fabric.SuperTile, layout fabric.Layout) []Request {
	mod := Module{Name: st.Name()}

	var (
		body   []Request
		shared = make(map[string]bool)
		links  = st.InternalLinks()
	)

	for _, l := range links {
		body = append(body, Signal{
			Name:   prefixed(l.FromX, l.FromY, l.Output.Name),
			Width:  l.Output.Width(),
			Vector: true,
		})
	}

	for y := 0; y < st.Rows(); y++ {
		for x := 0; x < st.Columns(); x++ {
			t := st.TileAt(x, y)
			if t == nil {
				continue
			}

			internal := make(map[string]bool)
			for _, p := range st.InternalPorts(x, y) {
				internal[p.Name+p.IO.String()] = true
			}

			inst := Instance{Module: t.Name(), Name: prefixed(x, y, t.Name())}

			for _, pin := range tileInterface(t, layout) {
				var actual Expr

				switch {
				case pin.Shared:
					if !shared[pin.Name] {
						shared[pin.Name] = true
						mod.Ports = append(mod.Ports, pin.Port)
					}

					actual = Ref{Name: pin.Name}
				case pin.Bus != nil && internal[pin.Bus.Name+pin.Bus.IO.String()]:
					actual = linkActual(links, x, y, *pin.Bus)
				default:
					exposed := pin.Port
					exposed.Name = prefixed(x, y, pin.Name)
					mod.Ports = append(mod.Ports, exposed)
					actual = Ref{Name: exposed.Name}
				}

				inst.Ports = append(inst.Ports, PortMap{Formal: pin.Name, Actual: actual})
			}

			body = append(body, inst)
		}
	}

	return append([]Request{mod}, body...)
}

func linkActual(links []fabric.Link, x, y int, p fabric.Port) Expr {
	if p.IO == fabric.Output {
		return Ref{Name: prefixed(x, y, p.Name)}
	}

	for _, l := range links {
		if l.ToX == x && l.ToY == y && l.Input.Name == p.Name {
			return Ref{Name: prefixed(l.FromX, l.FromY, l.Output.Name)}
		}
	}

	return Const{Width: p.Width()}
}

// FabricModule describes the top level. Frame data is broadcast per row and
// frame strobes per column. Each output bus is a Tile_X<x>Y<y>_<port>
// signal that the downstream neighbour reads; inputs without a driver are
// tied to zero. Tiles are instantiated in row-major order.
func FabricModule(f *fabric.Fabric) []Request {
	layout := f.Layout()
	mod := Module{Name: f.Name()}

	for y := 0; y < f.Rows(); y++ {
		mod.Ports = append(mod.Ports, Bus(RowFrameData(y), In, layout.FrameBitsPerRow))
	}

	for x := 0; x < f.Columns(); x++ {
		mod.Ports = append(mod.Ports, Bus(ColumnFrameStrobe(x), In, layout.MaxFramesPerCol))
	}

	var (
		signals []Request
		body    []Request
		shared  = make(map[string]bool)
	)

	for y := 0; y < f.Rows(); y++ {
		for x := 0; x < f.Columns(); x++ {
			t := f.TileAt(x, y)
			if t == nil {
				continue
			}

			inst := Instance{Module: t.Name(), Name: prefixed(x, y, t.Name())}

			for _, pin := range tileInterface(t, layout) {
				var actual Expr

				switch {
				case pin.Frame && pin.Name == FrameData:
					actual = Ref{Name: RowFrameData(y)}
				case pin.Frame:
					actual = Ref{Name: ColumnFrameStrobe(x)}
				case pin.Shared:
					if !shared[pin.Name] {
						shared[pin.Name] = true
						mod.Ports = append(mod.Ports, pin.Port)
					}

					actual = Ref{Name: pin.Name}
				case pin.Bus != nil && pin.Bus.IO == fabric.Output:
					name := prefixed(x, y, pin.Name)
					signals = append(signals, Signal{Name: name, Width: pin.Width, Vector: true})
					actual = Ref{Name: name}
				case pin.Bus != nil:
					actual = upstreamActual(f, x, y, *pin.Bus)
				default:
					exposed := pin.Port
					exposed.Name = prefixed(x, y, pin.Name)
					mod.Ports = append(mod.Ports, exposed)
					actual = Ref{Name: exposed.Name}
				}

				inst.Ports = append(inst.Ports, PortMap{Formal: pin.Name, Actual: actual})
			}

			body = append(body, inst)
		}
	}

	reqs := append([]Request{mod}, signals...)

	return append(reqs, body...)
}

func upstreamActual(f *fabric.Fabric, x, y int, in fabric.Port) Expr {
	ux, uy := in.Upstream(x, y)

	if t := f.TileAt(ux, uy); t != nil {
		if out, ok := t.OutputFor(in); ok && out.Width() == in.Width() {
			return Ref{Name: prefixed(ux, uy, out.Name)}
		}
	}

	return Const{Width: in.Width()}
}
