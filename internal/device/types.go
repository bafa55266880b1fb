package device

// Device represents a unit on the controller bus, reconstructed from the
// stream of facts published about it. A Device is never discarded once
// observed; fields are merged as facts arrive, never wholesale-replaced.
type Device struct {
	// ID is the stable identifier assigned by the controller firmware.
	ID string `json:"id"`

	// Driver names the controller-side driver handling the device.
	Driver string `json:"driver,omitempty"`

	// Title is the localised display name keyed by locale code.
	// Controllers that publish a bare-string title are stored under "en".
	Title map[string]string `json:"title,omitempty"`

	// Meta holds free-form metadata keys beyond driver and title.
	Meta map[string]any `json:"meta,omitempty"`

	// Error is the device-level error condition, nil when clear.
	Error *ErrorInfo `json:"error,omitempty"`

	// Controls maps control ID to its current record.
	Controls map[string]*Control `json:"controls,omitempty"`
}

// Control is an addressable input or output on a Device.
type Control struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Order    int    `json:"order,omitempty"`
	Readonly bool   `json:"readonly"`
	Type     string `json:"type,omitempty"`
	Units    string `json:"units,omitempty"`

	// Numeric bounds, present only when the controller declared them.
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Precision *float64 `json:"precision,omitempty"`

	// Value is the last observed raw value, as delivered.
	Value string `json:"value,omitempty"`

	// Topic is the address used to command this control. Empty exactly
	// when Readonly is true; derived from control meta, not revisited
	// between meta facts.
	Topic string `json:"topic,omitempty"`

	// Error is the control-level error condition, nil when clear.
	Error *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is an error condition reported on a device or control
// error channel. Controllers publish either a plain string or a JSON
// object; both are preserved.
type ErrorInfo struct {
	// Message is the plain-text error, or the "message" key of a
	// structured payload, or the raw payload when unstructured.
	Message string `json:"message"`

	// Details holds the full structured payload when the channel
	// carried a JSON object, nil otherwise.
	Details map[string]any `json:"details,omitempty"`
}

// DeepCopy creates a complete independent copy of the Device.
// All map and pointer fields are cloned so modifications to the copy
// do not affect the original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.Title != nil {
		cpy.Title = make(map[string]string, len(d.Title))
		for k, v := range d.Title {
			cpy.Title[k] = v
		}
	}

	cpy.Meta = deepCopyMap(d.Meta)
	cpy.Error = d.Error.deepCopy()

	if d.Controls != nil {
		cpy.Controls = make(map[string]*Control, len(d.Controls))
		for id, c := range d.Controls {
			cpy.Controls[id] = c.DeepCopy()
		}
	}

	return &cpy
}

// DeepCopy creates a complete independent copy of the Control.
func (c *Control) DeepCopy() *Control {
	if c == nil {
		return nil
	}

	cpy := *c
	cpy.Min = copyFloatPtr(c.Min)
	cpy.Max = copyFloatPtr(c.Max)
	cpy.Precision = copyFloatPtr(c.Precision)
	cpy.Error = c.Error.deepCopy()

	return &cpy
}

func (e *ErrorInfo) deepCopy() *ErrorInfo {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Details = deepCopyMap(e.Details)
	return &cpy
}

func copyFloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}
