// Package scheduler drives periodic trigger evaluation for AREA Core.
//
// One cron job exists per referenced trigger identity ("service/action"),
// not per area: areas sharing a trigger share its job and are each
// re-checked inside a single firing. The job table is held in memory and
// rebuilt from the binding store at boot via Reconcile; there is no
// persisted scheduler state to drift out of sync.
//
// Job lifecycle invariant: a job exists iff at least one enabled,
// non-public binding references the trigger. Enable paths call EnsureJob,
// disable/delete paths call RemoveJob when the last binding goes away, and
// a firing that finds zero qualifying bindings removes its own job.
package scheduler
