package area

import (
	"encoding/json"
	"time"
)

// Area represents an automation rule: one trigger binding paired with one or
// more ordered reaction bindings. When the trigger fires, the reactions run
// in order_index order.
type Area struct {
	// Identity
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`

	// Description (optional)
	Description string `json:"description,omitempty"`

	// Configuration
	Enabled bool `json:"enabled"`

	// IsPublic marks the area as a shared template. Public areas are
	// browsable and copyable by other users; they are never evaluated.
	IsPublic bool `json:"is_public"`

	// The trigger binding (exactly one per area)
	Action *ActionBinding `json:"action,omitempty"`

	// Reaction bindings (ordered by OrderIndex)
	Reactions []ReactionBinding `json:"reactions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ActionBinding attaches a registered Action (trigger) to an area with
// per-area configuration values.
type ActionBinding struct {
	ID     string `json:"id"`
	AreaID string `json:"area_id"`

	// Trigger identity: names a registered Action on a registered Service.
	Service string `json:"service"`
	Action  string `json:"action"`

	// Config holds values for the Action's declared config schema.
	Config map[string]any `json:"config"`

	// LastState is the opaque snapshot the Action's Check diffs against.
	// nil means the binding has never been checked. Only the owning
	// Action's Check writes the value; everything else treats it as a blob.
	LastState json.RawMessage `json:"-"`
}

// TriggerRef returns the composite trigger identity used to key scheduler
// jobs. Bindings with the same ref share one cron job.
func (b *ActionBinding) TriggerRef() string {
	return TriggerRef(b.Service, b.Action)
}

// TriggerRef builds the composite trigger identity for a (service, action) pair.
func TriggerRef(service, action string) string {
	return service + "/" + action
}

// ReactionBinding attaches a registered Reaction (effect) to an area with
// per-area configuration, execution order, and optional conditions.
type ReactionBinding struct {
	ID     string `json:"id"`
	AreaID string `json:"area_id"`

	// Effect identity: names a registered Reaction on a registered Service.
	Service  string `json:"service"`
	Reaction string `json:"reaction"`

	// Config holds values for the Reaction's declared config schema.
	Config map[string]any `json:"config"`

	// OrderIndex determines execution order (ascending). Values need not
	// be contiguous.
	OrderIndex int `json:"order_index"`

	// Delay in seconds before execution. Stored for forward compatibility;
	// the dispatcher does not currently enforce it.
	Delay int `json:"delay"`

	// Conditions gate execution. All must pass (AND). Empty = always run.
	Conditions []Condition `json:"conditions,omitempty"`
}

// Condition is a single field comparison evaluated against the event
// payload produced by the triggering Action.
type Condition struct {
	ID             string `json:"id"`
	AreaReactionID string `json:"area_reaction_id"`
	Field          string `json:"field"`
	Operator       string `json:"operator"`
	Value          string `json:"value"`
}

// Condition operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpContains    = "contains"
)

// ValidOperators is the set of supported condition operators.
var ValidOperators = []string{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpContains}

// IsValidOperator returns true if the operator is supported.
func IsValidOperator(op string) bool {
	for _, v := range ValidOperators {
		if op == v {
			return true
		}
	}
	return false
}

// TriggerBinding is an ActionBinding joined to its owning area's user,
// as loaded for a trigger firing. Only bindings whose area is enabled and
// not public qualify.
type TriggerBinding struct {
	UserID  string
	AreaID  string
	Binding ActionBinding
}
