package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/area-labs/area-core/internal/area"
	"github.com/area-labs/area-core/internal/plugin"
)

type staticRefs struct {
	actions   []area.TriggerKey
	reactions []area.TriggerKey
}

func (s staticRefs) ListBindingRefs(context.Context) ([]area.TriggerKey, []area.TriggerKey, error) {
	return s.actions, s.reactions, nil
}

func TestValidateBindings(t *testing.T) {
	source := "x"
	log := &executionLog{}
	registry := plugin.NewRegistry()
	if err := registry.Register(&testService{
		name:      "test",
		actions:   []plugin.Action{&diffAction{source: &source}},
		reactions: []plugin.Reaction{&recordingReaction{name: "record", log: log}},
	}); err != nil {
		t.Fatalf("registering: %v", err)
	}

	t.Run("all refs registered", func(t *testing.T) {
		refs := staticRefs{
			actions:   []area.TriggerKey{{Service: "test", Action: "value_changed"}},
			reactions: []area.TriggerKey{{Service: "test", Action: "record"}},
		}
		if err := ValidateBindings(context.Background(), refs, registry); err != nil {
			t.Errorf("ValidateBindings() = %v, want nil", err)
		}
	})

	t.Run("stale refs reported", func(t *testing.T) {
		refs := staticRefs{
			actions:   []area.TriggerKey{{Service: "gone", Action: "value_changed"}},
			reactions: []area.TriggerKey{{Service: "test", Action: "vanished"}},
		}
		err := ValidateBindings(context.Background(), refs, registry)
		if err == nil {
			t.Fatal("expected error for stale refs")
		}
		if !strings.Contains(err.Error(), "action gone/value_changed") {
			t.Errorf("error %q missing stale action", err)
		}
		if !strings.Contains(err.Error(), "reaction test/vanished") {
			t.Errorf("error %q missing stale reaction", err)
		}
	})
}
