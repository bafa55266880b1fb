package lighting

import "errors"

// Domain errors for the lighting package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, lighting.ErrGroupNotFound) {
//	    // handle not found case
//	}
var (
	// ErrGroupNotFound is returned when a location key does not exist.
	ErrGroupNotFound = errors.New("lighting: group not found")

	// ErrGroupExists is returned when creating a group whose location
	// already exists.
	ErrGroupExists = errors.New("lighting: group already exists")

	// ErrNoLocations is returned when a bulk operation names no locations.
	ErrNoLocations = errors.New("lighting: no locations given")

	// ErrInvalidState is returned when a group state is not ON or OFF.
	ErrInvalidState = errors.New("lighting: invalid state")

	// ErrPartialWrite is returned when a batch update changed fewer rows
	// than the keys it named. Callers must treat this as an anomaly, not
	// a silent no-op success.
	ErrPartialWrite = errors.New("lighting: partial write")

	// ErrSwitchFailed is the aggregate actuation failure. Individual
	// relay outcomes are logged, never swallowed.
	ErrSwitchFailed = errors.New("lighting: relay switch failed")
)
