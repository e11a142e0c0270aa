package bitstream

import "fmt"

// UnknownFeatureError reports a feature that no tile spec defines.
type UnknownFeatureError struct {
	Feature string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("unknown feature %s", e.Feature)
}

// ConflictError reports a bit written with both values.
type ConflictError struct {
	Address  int
	Features [2]string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting values for bit %d from %s and %s",
		e.Address, e.Features[0], e.Features[1])
}

// OutOfBoundsError reports a feature of a tile instance the fabric does
// not have.
type OutOfBoundsError struct {
	Feature string
	X, Y    int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("feature %s targets X%dY%d, which holds no tile",
		e.Feature, e.X, e.Y)
}
