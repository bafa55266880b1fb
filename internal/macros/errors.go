package macros

import "errors"

// Domain errors for the macros package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, macros.ErrMacroNotFound) {
//	    // handle not found case
//	}
var (
	// ErrMacroNotFound is returned when a macro ID does not exist.
	ErrMacroNotFound = errors.New("macro: not found")

	// ErrMacroExists is returned when creating a macro with an ID that already exists.
	ErrMacroExists = errors.New("macro: already exists")

	// ErrInvalidMacro is returned when macro validation fails.
	ErrInvalidMacro = errors.New("macro: invalid")

	// ErrInvalidType is returned when a macro type is not recognised.
	ErrInvalidType = errors.New("macro: invalid type")

	// ErrInvalidName is returned when a macro name is empty.
	ErrInvalidName = errors.New("macro: invalid name")

	// ErrNoSettings is returned when the settings shape for the macro's
	// type is missing.
	ErrNoSettings = errors.New("macro: no settings for type")

	// ErrNoTargets is returned when a lighting macro drives no controls.
	ErrNoTargets = errors.New("macro: no targets")

	// ErrNoButtons is returned when a lighting macro declares no triggers.
	ErrNoButtons = errors.New("macro: no buttons")

	// ErrInvalidRef is returned when a control reference is incomplete.
	ErrInvalidRef = errors.New("macro: invalid control reference")
)
