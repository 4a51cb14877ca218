package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/area-labs/area-core/internal/area"
)

// RefLister exposes the distinct binding identities held in the store.
type RefLister interface {
	ListBindingRefs(ctx context.Context) (actions, reactions []area.TriggerKey, err error)
}

// ValidateBindings cross-checks every persisted binding identity against
// the registered plugins. Run at startup to fail fast when the database
// references a service, action, or reaction this build no longer ships,
// instead of discovering it one silent firing at a time.
func ValidateBindings(ctx context.Context, repo RefLister, registry Resolver) error {
	actions, reactions, err := repo.ListBindingRefs(ctx)
	if err != nil {
		return fmt.Errorf("listing binding refs: %w", err)
	}

	var stale []string
	for _, k := range actions {
		if _, err := registry.ResolveAction(k.Service, k.Action); err != nil {
			stale = append(stale, "action "+k.Ref())
		}
	}
	for _, k := range reactions {
		if _, err := registry.ResolveReaction(k.Service, k.Action); err != nil {
			stale = append(stale, "reaction "+k.Ref())
		}
	}

	if len(stale) > 0 {
		return fmt.Errorf("unregistered identities referenced by stored bindings: %s",
			strings.Join(stale, ", "))
	}
	return nil
}
