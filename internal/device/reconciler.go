package device

import (
	"encoding/json"
)

// Reconciler folds the stream of partial facts into the device table.
//
// A device starts unknown and becomes partial on its first fact; it stays
// partial indefinitely because meta, control meta, and control values
// arrive independently for as long as the hardware lives. There is no
// terminal "complete" state.
//
// Apply is safe to call from the transport callback goroutine; the table
// lock guarantees no two merges interleave at the field level. Facts for
// a single device must be applied in delivery order, which MQTT gives us
// per topic; cross-device ordering is not guaranteed and nothing here
// relies on it.
type Reconciler struct {
	store  *Store
	logger Logger
}

// NewReconciler creates a reconciler owning the given device table.
func NewReconciler(store *Store) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the reconciler.
func (r *Reconciler) SetLogger(logger Logger) {
	r.logger = logger
}

// Store returns the device table for read-only consumers.
func (r *Reconciler) Store() *Store {
	return r.store
}

// Apply merges one fact into the device table.
//
// On a successful merge it returns the changed slice as a Patch and true.
// Malformed payloads are logged and dropped (nil, false); they never
// corrupt previously known facts because the merge is field-level, not
// payload-replace.
func (r *Reconciler) Apply(fact Fact) (*Patch, bool) {
	switch f := fact.(type) {
	case MetaFact:
		return r.applyMeta(f)
	case MetaErrorFact:
		return r.applyMetaError(f)
	case ControlMetaFact:
		return r.applyControlMeta(f)
	case ControlMetaErrorFact:
		return r.applyControlMetaError(f)
	case ControlValueFact:
		return r.applyControlValue(f)
	default:
		return nil, false
	}
}

// applyMeta merges a device meta payload: driver, title, and any
// remaining keys. A successful meta fact also clears a previously set
// device error, since the controller only republishes meta for a
// healthy device.
func (r *Reconciler) applyMeta(f MetaFact) (*Patch, bool) {
	if len(f.Payload) == 0 {
		return nil, false
	}

	var raw map[string]any
	if err := json.Unmarshal(f.Payload, &raw); err != nil {
		r.logger.Warn("dropping malformed device meta",
			"device_id", f.DeviceID,
			"error", err,
		)
		return nil, false
	}

	patch := &Patch{DeviceID: f.DeviceID}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d := r.store.upsert(f.DeviceID)

	for key, value := range raw {
		switch key {
		case "driver":
			if s, ok := value.(string); ok {
				d.Driver = s
				patch.Driver = &s
			}
		case "title":
			title := parseTitle(value)
			if len(title) == 0 {
				continue
			}
			if d.Title == nil {
				d.Title = make(map[string]string, len(title))
			}
			for locale, name := range title {
				d.Title[locale] = name
			}
			patch.Title = title
		default:
			if d.Meta == nil {
				d.Meta = make(map[string]any)
			}
			d.Meta[key] = deepCopyValue(value)
			if patch.Meta == nil {
				patch.Meta = make(map[string]any)
			}
			patch.Meta[key] = deepCopyValue(value)
		}
	}

	if d.Error != nil {
		d.Error = nil
		patch.ErrorSet = true
	}

	return patch, true
}

// applyMetaError handles the device-level error channel. An empty
// payload clears the error.
func (r *Reconciler) applyMetaError(f MetaErrorFact) (*Patch, bool) {
	errInfo := parseErrorPayload(f.Payload)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d := r.store.upsert(f.DeviceID)
	d.Error = errInfo

	return &Patch{
		DeviceID: f.DeviceID,
		ErrorSet: true,
		Error:    errInfo.deepCopy(),
	}, true
}

// applyControlMeta merges control metadata and (re)derives the command
// topic from the readonly flag.
func (r *Reconciler) applyControlMeta(f ControlMetaFact) (*Patch, bool) {
	if len(f.Payload) == 0 {
		return nil, false
	}

	var raw map[string]any
	if err := json.Unmarshal(f.Payload, &raw); err != nil {
		r.logger.Warn("dropping malformed control meta",
			"device_id", f.DeviceID,
			"control_id", f.ControlID,
			"error", err,
		)
		return nil, false
	}

	cp := &ControlPatch{ControlID: f.ControlID}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d := r.store.upsert(f.DeviceID)
	c := upsertControl(d, f.ControlID)

	for key, value := range raw {
		switch key {
		case "title":
			if title := parseTitle(value); len(title) > 0 {
				s := title["en"]
				if s == "" {
					for _, name := range title {
						s = name
						break
					}
				}
				c.Title = s
				cp.Title = &s
			}
		case "order":
			if n, ok := value.(float64); ok {
				order := int(n)
				c.Order = order
				cp.Order = &order
			}
		case "readonly":
			if b, ok := parseFlag(value); ok {
				c.Readonly = b
				cp.Readonly = &b
			}
		case "type":
			if s, ok := value.(string); ok {
				c.Type = s
				cp.Type = &s
			}
		case "units":
			if s, ok := value.(string); ok {
				c.Units = s
				cp.Units = &s
			}
		case "min":
			if n, ok := value.(float64); ok {
				c.Min = &n
				cp.Min = &n
			}
		case "max":
			if n, ok := value.(float64); ok {
				c.Max = &n
				cp.Max = &n
			}
		case "precision":
			if n, ok := value.(float64); ok {
				c.Precision = &n
				cp.Precision = &n
			}
		}
	}

	// Writable controls are commanded via their /on topic; readonly
	// controls have no command address at all.
	topic := ""
	if !c.Readonly {
		topic = CommandTopic(f.DeviceID, f.ControlID)
	}
	if c.Topic != topic {
		c.Topic = topic
		cp.Topic = &topic
	}

	return &Patch{
		DeviceID: f.DeviceID,
		Controls: map[string]*ControlPatch{f.ControlID: cp},
	}, true
}

// applyControlMetaError handles the control-level error channel.
func (r *Reconciler) applyControlMetaError(f ControlMetaErrorFact) (*Patch, bool) {
	errInfo := parseErrorPayload(f.Payload)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d := r.store.upsert(f.DeviceID)
	c := upsertControl(d, f.ControlID)
	c.Error = errInfo

	return &Patch{
		DeviceID: f.DeviceID,
		Controls: map[string]*ControlPatch{
			f.ControlID: {
				ControlID: f.ControlID,
				ErrorSet:  true,
				Error:     errInfo.deepCopy(),
			},
		},
	}, true
}

// applyControlValue records a raw reading. A value arriving before any
// control meta is retained on a skeleton control, not discarded.
func (r *Reconciler) applyControlValue(f ControlValueFact) (*Patch, bool) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d := r.store.upsert(f.DeviceID)
	c := upsertControl(d, f.ControlID)
	c.Value = f.Value

	value := f.Value
	return &Patch{
		DeviceID: f.DeviceID,
		Controls: map[string]*ControlPatch{
			f.ControlID: {
				ControlID: f.ControlID,
				Value:     &value,
			},
		},
	}, true
}

// upsertControl returns the live control record, creating it on first
// observation. New controls start readonly with no command topic until
// control meta says otherwise.
func upsertControl(d *Device, controlID string) *Control {
	if d.Controls == nil {
		d.Controls = make(map[string]*Control)
	}
	c, ok := d.Controls[controlID]
	if !ok {
		c = &Control{ID: controlID, Readonly: true}
		d.Controls[controlID] = c
	}
	return c
}

// parseTitle accepts either a bare string or a locale→string object.
// Bare strings are stored under "en".
func parseTitle(value any) map[string]string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return map[string]string{"en": v}
	case map[string]any:
		title := make(map[string]string, len(v))
		for locale, name := range v {
			if s, ok := name.(string); ok {
				title[locale] = s
			}
		}
		if len(title) == 0 {
			return nil
		}
		return title
	default:
		return nil
	}
}

// parseFlag accepts a JSON bool or the numeric 0/1 convention some
// controller firmwares use for boolean meta fields.
func parseFlag(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	default:
		return false, false
	}
}

// parseErrorPayload interprets an error-channel payload. Empty means
// cleared (nil). A JSON object is preserved in Details with its
// "message" key surfaced; anything else is kept as a raw string.
func parseErrorPayload(payload []byte) *ErrorInfo {
	if len(payload) == 0 {
		return nil
	}

	var details map[string]any
	if err := json.Unmarshal(payload, &details); err == nil {
		info := &ErrorInfo{Details: details}
		if msg, ok := details["message"].(string); ok {
			info.Message = msg
		} else {
			info.Message = string(payload)
		}
		return info
	}

	return &ErrorInfo{Message: string(payload)}
}
