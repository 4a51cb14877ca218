// Package engine evaluates triggers and dispatches reactions for AREA Core.
//
// A firing begins when the scheduler (or the /process endpoint) names a
// trigger identity. The Evaluator resolves the Action once, loads every
// binding whose area is enabled and not public, and checks each binding
// independently under a bounded timeout, grouped by owning user. Bindings
// that fire have their area's reactions dispatched synchronously in the
// same pass.
//
// Execution pipeline for one firing:
//
//	1. Resolve Action (unknown → stale job, retire it)
//	2. Load qualifying bindings (zero → retire job)
//	3. Per binding: Check under timeout, persist advanced last_state
//	4. Fired → Dispatch reactions ordered by order_index
//	5. Per reaction: resolve, evaluate conditions, Execute under timeout
//
// # Failure Isolation
//
// One binding's failure never affects another's: check errors, store
// errors, and reaction failures are logged and the loop continues.
// Nothing is retried inside a firing; the next scheduled firing is the
// retry. Unknown identities are configuration errors and are skipped
// permanently (ValidateBindings catches these at boot).
//
// # Concurrency
//
// Firings for different triggers run in parallel and share only the
// store. Same-trigger firings are not mutually excluded; single-instance
// operation is assumed.
package engine
