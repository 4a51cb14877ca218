package metrics

import "errors"

// Sentinel errors for metrics operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, metrics.ErrDisabled) {
//	    // run with the no-op recorder
//	}
var (
	// ErrNotConnected indicates the recorder is not connected to InfluxDB.
	ErrNotConnected = errors.New("metrics: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("metrics: connection failed")

	// ErrDisabled indicates the metrics recorder is disabled in config.
	ErrDisabled = errors.New("metrics: disabled in configuration")
)
