package device

import (
	"fmt"
	"strings"
)

// Topic namespace constants for the controller's MQTT conventions.
const (
	// topicPrefix is the root of the device namespace.
	topicPrefix = "/devices/"

	// rootSubscription observes the whole device tree with one wildcard.
	rootSubscription = "/devices/#"
)

// Segment identifies which channel family a topic belongs to.
type Segment int

// Segment constants. The set is closed: every device-namespace topic
// decodes to exactly one of these.
const (
	// SegmentMeta is device-level metadata: /devices/{id}/meta
	SegmentMeta Segment = iota
	// SegmentMetaError is the device-level error channel: /devices/{id}/meta/error
	SegmentMetaError
	// SegmentControlMeta is control metadata: /devices/{id}/controls/{c}/meta
	SegmentControlMeta
	// SegmentControlMetaError is the control error channel: /devices/{id}/controls/{c}/meta/error
	SegmentControlMetaError
	// SegmentControlValue is a raw control reading: /devices/{id}/controls/{c}
	// or any other non-meta topic under the control.
	SegmentControlValue
)

// String returns a human-readable segment name for logging.
func (s Segment) String() string {
	switch s {
	case SegmentMeta:
		return "meta"
	case SegmentMetaError:
		return "meta_error"
	case SegmentControlMeta:
		return "control_meta"
	case SegmentControlMetaError:
		return "control_meta_error"
	case SegmentControlValue:
		return "control_value"
	default:
		return "unknown"
	}
}

// Address is the decoded form of a device-namespace topic.
//
// ControlID is empty for device-level segments (SegmentMeta, SegmentMetaError)
// and non-empty for control-level segments.
type Address struct {
	DeviceID  string
	Segment   Segment
	ControlID string
}

// DecodeTopic parses a controller topic into an Address.
//
// Topics outside the device namespace, and device-namespace topics that do
// not match any known channel family, return ErrForeignTopic. Foreign topics
// are expected on a shared bus; callers drop them without logging an error.
//
// Recognised shapes:
//
//	/devices/{id}/meta                         → SegmentMeta
//	/devices/{id}/meta/error                   → SegmentMetaError
//	/devices/{id}/controls/{c}                 → SegmentControlValue
//	/devices/{id}/controls/{c}/meta            → SegmentControlMeta
//	/devices/{id}/controls/{c}/meta/error      → SegmentControlMetaError
//	/devices/{id}/controls/{c}/{anything-else} → SegmentControlValue
func DecodeTopic(topic string) (Address, error) {
	rest, ok := strings.CutPrefix(topic, topicPrefix)
	if !ok {
		return Address{}, ErrForeignTopic
	}

	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		return Address{}, ErrForeignTopic
	}

	deviceID := parts[0]

	switch parts[1] {
	case "meta":
		switch {
		case len(parts) == 2:
			return Address{DeviceID: deviceID, Segment: SegmentMeta}, nil
		case len(parts) == 3 && parts[2] == "error":
			return Address{DeviceID: deviceID, Segment: SegmentMetaError}, nil
		default:
			return Address{}, ErrForeignTopic
		}

	case "controls":
		if len(parts) < 3 || parts[2] == "" {
			return Address{}, ErrForeignTopic
		}
		controlID := parts[2]
		suffix := parts[3:]

		switch {
		case len(suffix) == 0:
			return Address{DeviceID: deviceID, Segment: SegmentControlValue, ControlID: controlID}, nil
		case len(suffix) == 1 && suffix[0] == "meta":
			return Address{DeviceID: deviceID, Segment: SegmentControlMeta, ControlID: controlID}, nil
		case len(suffix) == 2 && suffix[0] == "meta" && suffix[1] == "error":
			return Address{DeviceID: deviceID, Segment: SegmentControlMetaError, ControlID: controlID}, nil
		default:
			// Command echoes and driver-specific sub-topics carry raw values.
			return Address{DeviceID: deviceID, Segment: SegmentControlValue, ControlID: controlID}, nil
		}

	default:
		return Address{}, ErrForeignTopic
	}
}

// CommandTopic returns the address used to command a writable control.
// This is the inverse of DecodeTopic for the actuation direction.
func CommandTopic(deviceID, controlID string) string {
	return fmt.Sprintf("/devices/%s/controls/%s/on", deviceID, controlID)
}

// RootTopic returns the single wildcard subscription covering the
// entire device namespace.
func RootTopic() string {
	return rootSubscription
}
