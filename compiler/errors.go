package compiler

import (
	"fmt"
	"strings"
)

// A TileFailure records why one tile type could not be compiled.
type TileFailure struct {
	Tile string
	Err  error
}

// BatchError lists every tile that failed, sorted by tile name. Tiles that
// succeeded are not affected by the failures of others.
type BatchError struct {
	Failures []TileFailure
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = fmt.Sprintf("%s: %v", f.Tile, f.Err)
	}

	return fmt.Sprintf("%d tile(s) failed:\n  %s",
		len(e.Failures), strings.Join(msgs, "\n  "))
}

// Unwrap exposes the individual tile errors to errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}

	return errs
}
