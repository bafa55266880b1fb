package macros

import "strconv"

// FactSource exposes the current device facts to the engine. Satisfied
// by the device store; tests supply a plain map.
type FactSource interface {
	// ControlValue returns the last observed raw value of a control and
	// whether it has been observed at all.
	ControlValue(deviceID, controlID string) (string, bool)
}

// Evaluate computes a lighting macro's intent from its settings and the
// current facts.
//
// The rule fires when at least one declared button reads "1" and every
// illumination gate passes (its sensor reads strictly below the
// configured maximum). A sensor with no reading yet fails its gate: an
// unobserved room is not assumed dark.
//
// Evaluation is pure and synchronous. Same settings plus same facts
// always yield the same output, and the output references only inputs
// the settings declare, so the engine is testable without live devices.
// Messages are included only when the rule fires.
//
// The engine never actuates. Callers decide what to do with the intent.
func Evaluate(settings *LightingSettings, facts FactSource) *LightingOutput {
	if settings == nil {
		return &LightingOutput{}
	}

	on := buttonPressed(settings.Buttons, facts) && darkEnough(settings.Illumination, facts)

	output := &LightingOutput{
		Lightings: make([]LightingTarget, 0, len(settings.Targets)),
	}
	for _, target := range settings.Targets {
		output.Lightings = append(output.Lightings, LightingTarget{
			DeviceID:  target.DeviceID,
			ControlID: target.ControlID,
			State:     on,
		})
	}

	if on && len(settings.Messages) > 0 {
		output.Messages = make([]Message, len(settings.Messages))
		copy(output.Messages, settings.Messages)
	}

	return output
}

// buttonPressed reports whether any declared button currently reads "1".
func buttonPressed(buttons []ControlRef, facts FactSource) bool {
	for _, b := range buttons {
		if value, ok := facts.ControlValue(b.DeviceID, b.ControlID); ok && value == "1" {
			return true
		}
	}
	return false
}

// darkEnough reports whether every illumination gate passes. An empty
// gate list always passes.
func darkEnough(rules []IlluminationRule, facts FactSource) bool {
	for _, rule := range rules {
		raw, ok := facts.ControlValue(rule.Sensor.DeviceID, rule.Sensor.ControlID)
		if !ok {
			return false
		}
		lux, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return false
		}
		if lux >= rule.Max {
			return false
		}
	}
	return true
}
