// Package plugin defines the service plugin contracts for AREA Core.
//
// A Service bundles Actions (triggers) and Reactions (effects). Services
// register explicitly at boot; the Registry indexes their members by
// composite identity ("service/name") and is read-only afterwards. No
// reflection, no dynamic loading: unknown identities fail resolution with
// a configuration error.
//
// # Trigger Semantics
//
// An Action's Check is edge-triggered: it diffs fresh external state
// against the binding's State snapshot and fires only for a NEW
// occurrence. The first check of a binding initialises the snapshot and
// never fires. Check is the sole writer of the State; the engine persists
// it after the call.
//
// # Config Schemas
//
// Actions and Reactions declare ordered ConfigField schemas. ValidateConfig
// enforces required fields and value types when bindings are created; the
// String/Float/Int/Bool helpers read values leniently at evaluation time.
package plugin
