// Package area defines the automation rule model for AREA Core.
//
// An Area binds one trigger (an Action offered by a service) to one or more
// ordered effects (Reactions). The engine periodically re-checks the trigger;
// when it detects a new occurrence it executes the reactions in order.
//
// # Key Types
//
//   - Area: the rule, one ActionBinding plus ordered ReactionBindings
//   - ActionBinding: trigger identity + per-area config + last_state snapshot
//   - ReactionBinding: effect identity + config + order_index + conditions
//   - Condition: field/operator/value comparison gating one reaction
//   - Repository: persistence interface (SQLite implementation included)
//
// # last_state Ownership
//
// The last_state column is an opaque snapshot written only by the owning
// Action's Check. The repository moves it between the database and the
// binding without interpreting it; a nil value means the binding has never
// been checked.
//
// # Public Templates
//
// Areas with IsPublic set are shared templates: browsable and copyable by
// other users, never evaluated by the engine. The trigger evaluation
// queries exclude them.
package area
