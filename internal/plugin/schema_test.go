package plugin

import (
	"errors"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	schema := []ConfigField{
		{Name: "url", Type: FieldString, Required: true},
		{Name: "threshold", Type: FieldNumber, Required: true},
		{Name: "verbose", Type: FieldBool},
		{Name: "mode", Type: FieldSelect, Options: []string{"fast", "slow"}},
	}

	tests := []struct {
		name    string
		config  map[string]any
		wantErr error
	}{
		{
			name: "valid",
			config: map[string]any{
				"url":       "https://example.com",
				"threshold": 5.0,
				"verbose":   true,
				"mode":      "fast",
			},
		},
		{
			name: "threshold as string accepted",
			config: map[string]any{
				"url":       "https://example.com",
				"threshold": "12.5",
			},
		},
		{
			name:    "missing required field",
			config:  map[string]any{"url": "https://example.com"},
			wantErr: ErrMissingConfig,
		},
		{
			name: "non-numeric threshold",
			config: map[string]any{
				"url":       "https://example.com",
				"threshold": "warm",
			},
			wantErr: ErrBadConfig,
		},
		{
			name: "bad boolean",
			config: map[string]any{
				"url":       "https://example.com",
				"threshold": 1.0,
				"verbose":   "yes",
			},
			wantErr: ErrBadConfig,
		},
		{
			name: "select outside options",
			config: map[string]any{
				"url":       "https://example.com",
				"threshold": 1.0,
				"mode":      "medium",
			},
			wantErr: ErrBadConfig,
		},
		{
			name: "unknown keys tolerated",
			config: map[string]any{
				"url":       "https://example.com",
				"threshold": 1.0,
				"extra":     "ignored",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(schema, tt.config)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateConfig() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigHelpers(t *testing.T) {
	config := map[string]any{
		"name":    "areacore",
		"count":   float64(3),
		"ratio":   "2.5",
		"enabled": true,
	}

	if v, ok := String(config, "name"); !ok || v != "areacore" {
		t.Errorf("String(name) = %q, %v", v, ok)
	}
	if _, ok := String(config, "count"); ok {
		t.Error("String(count) should fail for non-string")
	}

	if v, ok := Float(config, "count"); !ok || v != 3 {
		t.Errorf("Float(count) = %v, %v", v, ok)
	}
	if v, ok := Float(config, "ratio"); !ok || v != 2.5 {
		t.Errorf("Float(ratio) = %v, %v (numeric strings should parse)", v, ok)
	}
	if _, ok := Float(config, "name"); ok {
		t.Error("Float(name) should fail")
	}

	if v, ok := Int(config, "count"); !ok || v != 3 {
		t.Errorf("Int(count) = %v, %v", v, ok)
	}

	if v, ok := Bool(config, "enabled"); !ok || !v {
		t.Errorf("Bool(enabled) = %v, %v", v, ok)
	}

	if _, ok := String(config, "missing"); ok {
		t.Error("String(missing) should report absence")
	}
}
