package fabric

import "fmt"

// A ModelError reports a malformed or inconsistent fabric description. It
// is fatal and aborts the run before anything is generated.
type ModelError struct {
	Source string
	Entity string
	Reason string
}

// NewModelError creates a ModelError with a formatted reason.
func NewModelError(source, entity, format string, args ...any) *ModelError {
	return &ModelError{
		Source: source,
		Entity: entity,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *ModelError) Error() string {
	msg := "model error"
	if e.Source != "" {
		msg += " in " + e.Source
	}

	if e.Entity != "" {
		msg += " (" + e.Entity + ")"
	}

	return msg + ": " + e.Reason
}
