package fabric

import (
	"strings"

	"github.com/pkg/errors"
)

// Direction is the direction attribute of a wire declaration.
type Direction int

const (
	North Direction = iota
	East
	South
	West
	Jump
)

// Name returns the name of the direction as written in tile files.
func (d Direction) Name() string {
	switch d {
	case North:
		return "NORTH"
	case East:
		return "EAST"
	case South:
		return "SOUTH"
	case West:
		return "WEST"
	case Jump:
		return "JUMP"
	default:
		panic("invalid direction")
	}
}

func (d Direction) String() string {
	return d.Name()
}

// ParseDirection parses NORTH, EAST, SOUTH, WEST or JUMP.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NORTH":
		return North, nil
	case "EAST":
		return East, nil
	case "SOUTH":
		return South, nil
	case "WEST":
		return West, nil
	case "JUMP":
		return Jump, nil
	}

	return North, errors.Errorf("unknown wire direction %q", s)
}

// Side is the side of a tile a port is physically located on.
type Side int

const (
	NorthSide Side = iota
	EastSide
	SouthSide
	WestSide
	AnySide
)

// Name returns the name of the side.
func (s Side) Name() string {
	switch s {
	case NorthSide:
		return "North"
	case EastSide:
		return "East"
	case SouthSide:
		return "South"
	case WestSide:
		return "West"
	case AnySide:
		return "Any"
	default:
		panic("invalid side")
	}
}

func (s Side) String() string {
	return s.Name()
}

// Opposite returns the side facing s. AnySide is its own opposite.
func (s Side) Opposite() Side {
	switch s {
	case NorthSide:
		return SouthSide
	case SouthSide:
		return NorthSide
	case EastSide:
		return WestSide
	case WestSide:
		return EastSide
	default:
		return AnySide
	}
}

func (d Direction) side() Side {
	switch d {
	case North:
		return NorthSide
	case East:
		return EastSide
	case South:
		return SouthSide
	case West:
		return WestSide
	default:
		return AnySide
	}
}

// IO is the direction of a port seen from inside the tile.
type IO int

const (
	Input IO = iota
	Output
)

func (io IO) String() string {
	if io == Input {
		return "INPUT"
	}

	return "OUTPUT"
}
