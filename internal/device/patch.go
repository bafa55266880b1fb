package device

// Patch is the changed slice of a Device after one fact was merged.
// It carries only what the fact asserted, never the whole device, so
// downstream writers stay idempotent and avoid full-document replication.
//
// Pointer fields distinguish "not touched" (nil) from "set to zero value".
// Error channels additionally need ErrorSet, because a cleared error is a
// real change whose new value is nil.
type Patch struct {
	DeviceID string `json:"device_id"`

	Driver *string           `json:"driver,omitempty"`
	Title  map[string]string `json:"title,omitempty"`
	Meta   map[string]any    `json:"meta,omitempty"`

	// ErrorSet reports whether the device error channel changed;
	// Error is the new value (nil = cleared).
	ErrorSet bool       `json:"error_set,omitempty"`
	Error    *ErrorInfo `json:"error,omitempty"`

	Controls map[string]*ControlPatch `json:"controls,omitempty"`
}

// ControlPatch is the changed slice of one Control.
type ControlPatch struct {
	ControlID string `json:"control_id"`

	Title     *string  `json:"title,omitempty"`
	Order     *int     `json:"order,omitempty"`
	Readonly  *bool    `json:"readonly,omitempty"`
	Type      *string  `json:"type,omitempty"`
	Units     *string  `json:"units,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Precision *float64 `json:"precision,omitempty"`

	Value *string `json:"value,omitempty"`
	Topic *string `json:"topic,omitempty"`

	ErrorSet bool       `json:"error_set,omitempty"`
	Error    *ErrorInfo `json:"error,omitempty"`
}
