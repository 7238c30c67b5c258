package profile

import "errors"

// Sentinel errors for store operations.
var (
	// ErrUnknownField is returned when a name is not part of the form.
	ErrUnknownField = errors.New("unknown profile field")

	// ErrWrongFieldKind is returned when an operation targets a field it
	// does not own, e.g. SetField("city", …).
	ErrWrongFieldKind = errors.New("field not addressable by this operation")
)
