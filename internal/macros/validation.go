package macros

import "fmt"

// Validate checks a macro for structural correctness before it is
// persisted. It returns the first problem found, wrapped so callers can
// branch with errors.Is.
func Validate(m *Macro) error {
	if m == nil {
		return ErrInvalidMacro
	}

	if m.Name == "" {
		return ErrInvalidName
	}

	switch m.Type {
	case MacroTypeLighting:
		return validateLighting(m.Settings.Lighting)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidType, m.Type)
	}
}

func validateLighting(s *LightingSettings) error {
	if s == nil {
		return fmt.Errorf("%w: %s", ErrNoSettings, MacroTypeLighting)
	}

	if len(s.Buttons) == 0 {
		return ErrNoButtons
	}
	if len(s.Targets) == 0 {
		return ErrNoTargets
	}

	for _, ref := range s.Buttons {
		if err := validateRef("button", ref); err != nil {
			return err
		}
	}
	for _, ref := range s.Targets {
		if err := validateRef("target", ref); err != nil {
			return err
		}
	}
	for _, rule := range s.Illumination {
		if err := validateRef("illumination sensor", rule.Sensor); err != nil {
			return err
		}
		if rule.Max <= 0 {
			return fmt.Errorf("%w: illumination max must be positive, got %v", ErrInvalidMacro, rule.Max)
		}
	}

	return nil
}

func validateRef(kind string, ref ControlRef) error {
	if ref.DeviceID == "" || ref.ControlID == "" {
		return fmt.Errorf("%w: %s needs device and control ids", ErrInvalidRef, kind)
	}
	return nil
}
