package device

// Fact is a single observed statement about a device, decoded from one
// message on one channel family. The set of implementations is closed;
// each variant carries only the fields its channel can legitimately
// produce, so merge logic dispatches on the concrete type instead of
// probing payload shapes.
type Fact interface {
	// Device returns the ID of the device the fact is about.
	Device() string
}

// MetaFact carries a device-level metadata payload (JSON).
type MetaFact struct {
	DeviceID string
	Payload  []byte
}

// Device returns the device ID.
func (f MetaFact) Device() string { return f.DeviceID }

// MetaErrorFact carries the device-level error channel. An empty payload
// means the error condition cleared.
type MetaErrorFact struct {
	DeviceID string
	Payload  []byte
}

// Device returns the device ID.
func (f MetaErrorFact) Device() string { return f.DeviceID }

// ControlMetaFact carries a control metadata payload (JSON).
type ControlMetaFact struct {
	DeviceID  string
	ControlID string
	Payload   []byte
}

// Device returns the device ID.
func (f ControlMetaFact) Device() string { return f.DeviceID }

// ControlMetaErrorFact carries a control error channel payload.
// An empty payload means the error condition cleared.
type ControlMetaErrorFact struct {
	DeviceID  string
	ControlID string
	Payload   []byte
}

// Device returns the device ID.
func (f ControlMetaErrorFact) Device() string { return f.DeviceID }

// ControlValueFact carries a raw control reading.
type ControlValueFact struct {
	DeviceID  string
	ControlID string
	Value     string
}

// Device returns the device ID.
func (f ControlValueFact) Device() string { return f.DeviceID }

// Fact converts a decoded Address plus its payload into the tagged
// variant for that channel family.
func (a Address) Fact(payload []byte) Fact {
	switch a.Segment {
	case SegmentMeta:
		return MetaFact{DeviceID: a.DeviceID, Payload: payload}
	case SegmentMetaError:
		return MetaErrorFact{DeviceID: a.DeviceID, Payload: payload}
	case SegmentControlMeta:
		return ControlMetaFact{DeviceID: a.DeviceID, ControlID: a.ControlID, Payload: payload}
	case SegmentControlMetaError:
		return ControlMetaErrorFact{DeviceID: a.DeviceID, ControlID: a.ControlID, Payload: payload}
	case SegmentControlValue:
		return ControlValueFact{DeviceID: a.DeviceID, ControlID: a.ControlID, Value: string(payload)}
	default:
		return nil
	}
}
