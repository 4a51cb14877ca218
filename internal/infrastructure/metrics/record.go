package metrics

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordFiring records the outcome of one evaluation pass for a trigger
// identity: how many bindings fired and how many checks failed.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Implements the engine's Metrics interface.
func (r *Recorder) RecordFiring(service, action string, fired, failed int) {
	if !r.IsConnected() {
		return
	}

	point := write.NewPoint(
		"trigger_firings",
		map[string]string{
			"service": service,
			"action":  action,
		},
		map[string]interface{}{
			"fired":  fired,
			"failed": failed,
		},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}

// RecordExecution records one reaction run, tagged by area and outcome.
//
// Implements the engine's Metrics interface.
func (r *Recorder) RecordExecution(areaID, service, reaction string, ok bool) {
	if !r.IsConnected() {
		return
	}

	success := 0
	failure := 1
	if ok {
		success, failure = 1, 0
	}

	point := write.NewPoint(
		"reaction_executions",
		map[string]string{
			"area_id":  areaID,
			"service":  service,
			"reaction": reaction,
		},
		map[string]interface{}{
			"success": success,
			"failure": failure,
		},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (r *Recorder) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !r.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	r.writeAPI.WritePoint(point)
}
