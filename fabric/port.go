package fabric

import (
	"fmt"
)

// NullName marks the unconnected end of a wire declaration.
const NullName = "NULL"

// A Port is one end of a wire declaration as seen from a tile. A declaration
// line yields an Output port named after its source and an Input port named
// after its destination.
type Port struct {
	Direction       Direction
	SourceName      string
	XOffset         int
	YOffset         int
	DestinationName string
	WireCount       int
	Name            string
	IO              IO
	Side            Side
}

func (p Port) String() string {
	return fmt.Sprintf("Port(%s,%s,%s,X%dY%d,%d)",
		p.Name, p.IO, p.Side, p.XOffset, p.YOffset, p.WireCount)
}

// Span is the number of tiles the wire travels, at least one.
func (p Port) Span() int {
	s := abs(p.XOffset) + abs(p.YOffset)
	if s < 1 {
		return 1
	}

	return s
}

// Width is the number of physical wires of the port at the tile boundary.
func (p Port) Width() int {
	return p.WireCount * p.Span()
}

// SwitchPins are the wires of the port that the switch matrix drives
// (Output) or listens to (Input).
func (p Port) SwitchPins() []string {
	pins := make([]string, p.WireCount)
	for i := range pins {
		pins[i] = fmt.Sprintf("%s%d", p.Name, i)
	}

	return pins
}

// BusIndex maps the i-th switch pin onto the port's physical bus. A wire
// spanning several tiles enters at the top slice of the input bus and
// leaves from the bottom slice of the output bus; the slices in between are
// rotated through the tile.
func (p Port) BusIndex(i int) int {
	if p.IO == Input {
		return p.WireCount*(p.Span()-1) + i
	}

	return i
}

// Adjacent returns the tile that the output bus of the tile at (x, y)
// connects to. A bus always reaches the direct neighbour; longer wires
// travel further by rotating through each tile on the way.
func (p Port) Adjacent(x, y int) (int, int) {
	return x + sign(p.XOffset), y + sign(p.YOffset)
}

// Upstream returns the tile that drives this input bus of the tile at
// (x, y).
func (p Port) Upstream(x, y int) (int, int) {
	return x - sign(p.XOffset), y - sign(p.YOffset)
}

// Pairs reports whether p and q come from the same wire declaration.
func (p Port) Pairs(q Port) bool {
	return p.Direction == q.Direction &&
		p.SourceName == q.SourceName &&
		p.DestinationName == q.DestinationName &&
		p.XOffset == q.XOffset && p.YOffset == q.YOffset &&
		p.WireCount == q.WireCount
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}

// NewPortPair builds the ports of one wire declaration. A NULL end produces
// no port.
func NewPortPair(
	dir Direction,
	src string,
	dx, dy int,
	dst string,
	wires int,
) []Port {
	ports := make([]Port, 0, 2)

	base := Port{
		Direction:       dir,
		SourceName:      src,
		XOffset:         dx,
		YOffset:         dy,
		DestinationName: dst,
		WireCount:       wires,
	}

	if src != NullName {
		out := base
		out.Name = src
		out.IO = Output
		out.Side = dir.side()
		ports = append(ports, out)
	}

	if dst != NullName {
		in := base
		in.Name = dst
		in.IO = Input
		in.Side = dir.side().Opposite()
		ports = append(ports, in)
	}

	return ports
}
