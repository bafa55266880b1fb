package macros

import (
	"reflect"
	"testing"
)

// factMap is a FactSource backed by a plain map keyed "device/control".
type factMap map[string]string

func (f factMap) ControlValue(deviceID, controlID string) (string, bool) {
	v, ok := f[deviceID+"/"+controlID]
	return v, ok
}

func hallSettings() *LightingSettings {
	return &LightingSettings{
		Buttons: []ControlRef{
			{DeviceID: "wb-gpio", ControlID: "Button1"},
			{DeviceID: "wb-gpio", ControlID: "Button2"},
		},
		Illumination: []IlluminationRule{
			{Sensor: ControlRef{DeviceID: "wb-msw-1", ControlID: "Illuminance"}, Max: 150},
		},
		Targets: []ControlRef{
			{DeviceID: "wb-mr6-1", ControlID: "K1"},
			{DeviceID: "wb-mr6-1", ControlID: "K2"},
		},
		Messages: []Message{
			{Topic: "/wirebus/notify/hall", Payload: "lights on"},
		},
	}
}

func TestEvaluate_Fires(t *testing.T) {
	facts := factMap{
		"wb-gpio/Button1":      "1",
		"wb-msw-1/Illuminance": "80.5",
	}

	output := Evaluate(hallSettings(), facts)

	if len(output.Lightings) != 2 {
		t.Fatalf("Lightings count = %d, want 2", len(output.Lightings))
	}
	for _, l := range output.Lightings {
		if !l.State {
			t.Errorf("target %s/%s state = false, want true", l.DeviceID, l.ControlID)
		}
	}
	if len(output.Messages) != 1 || output.Messages[0].Payload != "lights on" {
		t.Errorf("Messages = %+v, want the configured message", output.Messages)
	}
}

func TestEvaluate_NoButtonPressed(t *testing.T) {
	facts := factMap{
		"wb-gpio/Button1":      "0",
		"wb-gpio/Button2":      "0",
		"wb-msw-1/Illuminance": "80.5",
	}

	output := Evaluate(hallSettings(), facts)

	for _, l := range output.Lightings {
		if l.State {
			t.Errorf("target %s/%s state = true with no button pressed", l.DeviceID, l.ControlID)
		}
	}
	if len(output.Messages) != 0 {
		t.Errorf("Messages = %+v, want none when the rule does not fire", output.Messages)
	}
}

func TestEvaluate_TooBright(t *testing.T) {
	facts := factMap{
		"wb-gpio/Button1":      "1",
		"wb-msw-1/Illuminance": "400",
	}

	output := Evaluate(hallSettings(), facts)

	for _, l := range output.Lightings {
		if l.State {
			t.Error("rule fired above the illumination threshold")
		}
	}
}

func TestEvaluate_ThresholdIsExclusive(t *testing.T) {
	facts := factMap{
		"wb-gpio/Button1":      "1",
		"wb-msw-1/Illuminance": "150",
	}

	output := Evaluate(hallSettings(), facts)

	if output.Lightings[0].State {
		t.Error("rule fired at exactly the threshold, gate must be strict")
	}
}

func TestEvaluate_UnobservedSensorBlocksRule(t *testing.T) {
	// Button pressed but the lux sensor has never reported. An
	// unobserved room is not assumed dark.
	facts := factMap{"wb-gpio/Button1": "1"}

	output := Evaluate(hallSettings(), facts)

	if output.Lightings[0].State {
		t.Error("rule fired without any illumination reading")
	}
}

func TestEvaluate_NonNumericSensorBlocksRule(t *testing.T) {
	facts := factMap{
		"wb-gpio/Button1":      "1",
		"wb-msw-1/Illuminance": "garbage",
	}

	output := Evaluate(hallSettings(), facts)

	if output.Lightings[0].State {
		t.Error("rule fired on a non-numeric illumination reading")
	}
}

func TestEvaluate_NoIlluminationGates(t *testing.T) {
	settings := hallSettings()
	settings.Illumination = nil
	facts := factMap{"wb-gpio/Button2": "1"}

	output := Evaluate(settings, facts)

	if !output.Lightings[0].State {
		t.Error("button-only rule did not fire")
	}
}

func TestEvaluate_Pure(t *testing.T) {
	facts := factMap{
		"wb-gpio/Button1":      "1",
		"wb-msw-1/Illuminance": "80.5",
	}

	first := Evaluate(hallSettings(), facts)
	second := Evaluate(hallSettings(), facts)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two evaluations differ:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestEvaluate_IgnoresUndeclaredInputs(t *testing.T) {
	facts := factMap{
		"wb-gpio/Button1":      "1",
		"wb-msw-1/Illuminance": "80.5",
	}
	baseline := Evaluate(hallSettings(), facts)

	// A fact the rule never declared must not change the output.
	facts["wb-msw-2/Temperature"] = "21.4"
	perturbed := Evaluate(hallSettings(), facts)

	if !reflect.DeepEqual(baseline, perturbed) {
		t.Errorf("undeclared input changed the output:\nbaseline  = %+v\nperturbed = %+v", baseline, perturbed)
	}
}

func TestEvaluate_NilSettings(t *testing.T) {
	output := Evaluate(nil, factMap{})
	if len(output.Lightings) != 0 || len(output.Messages) != 0 {
		t.Errorf("Evaluate(nil) = %+v, want empty output", output)
	}
}
