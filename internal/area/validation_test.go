package area

import (
	"errors"
	"strings"
	"testing"
)

// validArea returns an area that passes validation.
func validArea() *Area {
	return &Area{
		ID:     "area-01",
		UserID: "user-01",
		Name:   "Morning digest",
		Action: &ActionBinding{
			Service: "clock",
			Action:  "daily_at",
			Config:  map[string]any{"time": "07:00"},
		},
		Reactions: []ReactionBinding{
			{Service: "webhook", Reaction: "post_json", OrderIndex: 0},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Area)
		wantErr error
	}{
		{
			name:   "valid area",
			mutate: func(*Area) {},
		},
		{
			name:    "nil action binding",
			mutate:  func(a *Area) { a.Action = nil },
			wantErr: ErrNoAction,
		},
		{
			name:    "no reactions",
			mutate:  func(a *Area) { a.Reactions = nil },
			wantErr: ErrNoReactions,
		},
		{
			name:    "empty name",
			mutate:  func(a *Area) { a.Name = "" },
			wantErr: ErrInvalid,
		},
		{
			name:    "name too long",
			mutate:  func(a *Area) { a.Name = strings.Repeat("x", maxNameLength+1) },
			wantErr: ErrInvalid,
		},
		{
			name:    "missing user",
			mutate:  func(a *Area) { a.UserID = "" },
			wantErr: ErrInvalid,
		},
		{
			name:    "action missing service",
			mutate:  func(a *Area) { a.Action.Service = "" },
			wantErr: ErrInvalid,
		},
		{
			name:    "reaction missing name",
			mutate:  func(a *Area) { a.Reactions[0].Reaction = "" },
			wantErr: ErrInvalid,
		},
		{
			name:    "negative order index",
			mutate:  func(a *Area) { a.Reactions[0].OrderIndex = -1 },
			wantErr: ErrInvalid,
		},
		{
			name:    "delay out of range",
			mutate:  func(a *Area) { a.Reactions[0].Delay = maxDelaySeconds + 1 },
			wantErr: ErrInvalid,
		},
		{
			name: "unknown condition operator",
			mutate: func(a *Area) {
				a.Reactions[0].Conditions = []Condition{
					{Field: "severity", Operator: "matches", Value: "5"},
				}
			},
			wantErr: ErrInvalidCondition,
		},
		{
			name: "condition missing field",
			mutate: func(a *Area) {
				a.Reactions[0].Conditions = []Condition{
					{Field: "", Operator: OpEquals, Value: "5"},
				}
			},
			wantErr: ErrInvalidCondition,
		},
		{
			name: "valid conditions",
			mutate: func(a *Area) {
				a.Reactions[0].Conditions = []Condition{
					{Field: "severity", Operator: OpGreaterThan, Value: "5"},
					{Field: "title", Operator: OpContains, Value: "storm"},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validArea()
			tt.mutate(a)

			err := Validate(a)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NilArea(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("Validate(nil) error = %v, want ErrInvalid", err)
	}
}

func TestIsValidOperator(t *testing.T) {
	for _, op := range ValidOperators {
		if !IsValidOperator(op) {
			t.Errorf("IsValidOperator(%q) = false, want true", op)
		}
	}
	if IsValidOperator("regex") {
		t.Error("IsValidOperator(regex) = true, want false")
	}
}

func TestTriggerRef(t *testing.T) {
	b := &ActionBinding{Service: "weather", Action: "temperature_rises_above"}
	if got := b.TriggerRef(); got != "weather/temperature_rises_above" {
		t.Errorf("TriggerRef() = %q", got)
	}
}
