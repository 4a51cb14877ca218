// Package metrics provides the optional InfluxDB recorder for engine
// activity in AREA Core.
//
// It wraps the official influxdb-client-go v2 library with the project's
// patterns for connection management, non-blocking batched writes, and
// health monitoring.
//
// # Purpose
//
// The recorder implements the engine's Metrics interface and stores two
// measurements:
//   - trigger_firings: per evaluation pass, how many bindings fired or
//     failed for a trigger identity
//   - reaction_executions: per reaction run, tagged by area and outcome
//
// # Usage
//
//	recorder, err := metrics.Connect(cfg.Metrics)
//	if err != nil {
//	    // metrics are optional; fall back to the engine's no-op recorder
//	}
//	defer recorder.Close()
//
//	evaluator.SetMetrics(recorder)
//	dispatcher.SetMetrics(recorder)
//
// Writes are asynchronous; a broker outage costs data points, never a
// blocked firing.
package metrics
