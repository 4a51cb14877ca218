package plugin

import (
	"fmt"
	"strconv"
)

// FieldType tags a config field for client-side form rendering.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldBool   FieldType = "boolean"
	FieldSelect FieldType = "select"
)

// ConfigField describes one entry in an Action or Reaction config schema.
// Order is significant: clients render fields in declaration order.
type ConfigField struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`

	// Options lists the permitted values for select fields.
	Options []string `json:"options,omitempty"`
}

// ValidateConfig checks a binding's config values against a schema.
// Unknown keys are tolerated; missing required fields are not.
func ValidateConfig(schema []ConfigField, config map[string]any) error {
	for _, f := range schema {
		v, ok := config[f.Name]
		if !ok || v == nil {
			if f.Required {
				return fmt.Errorf("%w: %s", ErrMissingConfig, f.Name)
			}
			continue
		}

		switch f.Type {
		case FieldNumber:
			if _, ok := Float(config, f.Name); !ok {
				return fmt.Errorf("%w: %s must be a number", ErrBadConfig, f.Name)
			}
		case FieldBool:
			if _, ok := v.(bool); !ok {
				return fmt.Errorf("%w: %s must be a boolean", ErrBadConfig, f.Name)
			}
		case FieldSelect:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string", ErrBadConfig, f.Name)
			}
			if len(f.Options) > 0 && !contains(f.Options, s) {
				return fmt.Errorf("%w: %s must be one of %v", ErrBadConfig, f.Name, f.Options)
			}
		}
	}
	return nil
}

// String extracts a string config value.
func String(config map[string]any, key string) (string, bool) {
	v, ok := config[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float extracts a numeric config value. JSON decoding produces float64,
// but strings holding numbers are accepted too since older clients send
// every field as text.
func Float(config map[string]any, key string) (float64, bool) {
	v, ok := config[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int extracts an integer config value via Float.
func Int(config map[string]any, key string) (int, bool) {
	f, ok := Float(config, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Bool extracts a boolean config value.
func Bool(config map[string]any, key string) (bool, bool) {
	v, ok := config[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
