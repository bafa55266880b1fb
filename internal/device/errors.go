package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrForeignTopic) {
//	    // topic belongs to another namespace, ignore it
//	}
var (
	// ErrForeignTopic is returned when a topic does not belong to the
	// device namespace. Callers must treat it as "not for us" and drop
	// the message silently.
	ErrForeignTopic = errors.New("device: foreign topic")

	// ErrDeviceNotFound is returned when a device ID has never been observed.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrControlNotFound is returned when a control ID does not exist on a device.
	ErrControlNotFound = errors.New("device: control not found")

	// ErrMalformedPayload is returned when a payload is not valid JSON
	// where JSON is expected.
	ErrMalformedPayload = errors.New("device: malformed payload")
)
