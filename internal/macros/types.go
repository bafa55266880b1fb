package macros

import "time"

// Macro is a stored automation rule mapping device facts to desired
// outputs. The settings and output shapes form a closed set keyed by
// Type; there is no dynamic shape.
type Macro struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`

	// Description (optional)
	Description string `json:"description,omitempty"`

	// Type discriminates the settings/output shape.
	Type MacroType `json:"type"`

	// Labels are free-form tags for filtering in the admin surface.
	Labels []string `json:"labels,omitempty"`

	// Settings is the rule's typed configuration.
	Settings Settings `json:"settings"`

	// Output is the last computed result, persisted for inspection.
	Output Output `json:"output"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MacroType discriminates the settings/output shape of a macro.
type MacroType string

// MacroType constants.
const (
	MacroTypeLighting MacroType = "LIGHTING"
)

// AllMacroTypes returns all valid macro type values.
func AllMacroTypes() []MacroType {
	return []MacroType{MacroTypeLighting}
}

// Settings holds exactly one typed settings shape, selected by the
// macro's Type.
type Settings struct {
	Lighting *LightingSettings `json:"lighting,omitempty"`
}

// LightingSettings configures a lighting macro: which buttons trigger
// it, under what ambient light it may fire, and which controls it drives.
type LightingSettings struct {
	// Buttons are the wall-switch inputs that trigger the macro.
	// Any button reading "1" arms the rule.
	Buttons []ControlRef `json:"buttons"`

	// Illumination gates the rule on ambient light: every sensor must
	// read below its threshold for the rule to fire.
	Illumination []IlluminationRule `json:"illumination,omitempty"`

	// Targets are the controls driven when the rule fires.
	Targets []ControlRef `json:"targets"`

	// Messages are published verbatim when the rule fires.
	Messages []Message `json:"messages,omitempty"`
}

// ControlRef addresses one control on one device.
type ControlRef struct {
	DeviceID  string `json:"device_id"`
	ControlID string `json:"control_id"`
}

// IlluminationRule is an ambient-light gate: the referenced sensor must
// read strictly below Max for the gate to pass.
type IlluminationRule struct {
	Sensor ControlRef `json:"sensor"`
	Max    float64    `json:"max"`
}

// Message is an outbound protocol message.
type Message struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

// Output holds exactly one typed output shape, selected by the macro's Type.
type Output struct {
	Lighting *LightingOutput `json:"lighting,omitempty"`
}

// LightingOutput is the computed intent of a lighting macro. The engine
// returns intent only; a caller decides whether to actuate.
type LightingOutput struct {
	// Lightings is the desired boolean state per target control.
	Lightings []LightingTarget `json:"lightings"`

	// Messages to publish. Empty unless the rule fired.
	Messages []Message `json:"messages,omitempty"`
}

// LightingTarget is the desired state of one control.
type LightingTarget struct {
	DeviceID  string `json:"device_id"`
	ControlID string `json:"control_id"`
	State     bool   `json:"state"`
}

// DeepCopy creates a complete independent copy of the Macro.
// All slice and pointer fields are cloned so modifications to the copy
// do not affect the original. This is essential for cache isolation.
func (m *Macro) DeepCopy() *Macro {
	if m == nil {
		return nil
	}

	cpy := *m

	if m.Labels != nil {
		cpy.Labels = make([]string, len(m.Labels))
		copy(cpy.Labels, m.Labels)
	}

	cpy.Settings.Lighting = m.Settings.Lighting.deepCopy()
	cpy.Output.Lighting = m.Output.Lighting.deepCopy()

	return &cpy
}

func (s *LightingSettings) deepCopy() *LightingSettings {
	if s == nil {
		return nil
	}

	cpy := *s
	if s.Buttons != nil {
		cpy.Buttons = make([]ControlRef, len(s.Buttons))
		copy(cpy.Buttons, s.Buttons)
	}
	if s.Illumination != nil {
		cpy.Illumination = make([]IlluminationRule, len(s.Illumination))
		copy(cpy.Illumination, s.Illumination)
	}
	if s.Targets != nil {
		cpy.Targets = make([]ControlRef, len(s.Targets))
		copy(cpy.Targets, s.Targets)
	}
	if s.Messages != nil {
		cpy.Messages = make([]Message, len(s.Messages))
		copy(cpy.Messages, s.Messages)
	}
	return &cpy
}

func (o *LightingOutput) deepCopy() *LightingOutput {
	if o == nil {
		return nil
	}

	cpy := *o
	if o.Lightings != nil {
		cpy.Lightings = make([]LightingTarget, len(o.Lightings))
		copy(cpy.Lightings, o.Lightings)
	}
	if o.Messages != nil {
		cpy.Messages = make([]Message, len(o.Messages))
		copy(cpy.Messages, o.Messages)
	}
	return &cpy
}
