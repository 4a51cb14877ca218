// Package mqtt wraps eclipse/paho.mqtt.golang for AREA Core's outbound
// broker traffic.
//
// Two producers share the one client: the mqtt service's publish_message
// reaction (user payloads under areacore/user/{user_id}/...) and the
// optional engine event mirror (areacore/events/{type}). The client is
// publish-only; nothing in AREA Core subscribes.
//
// Connection management is automatic: reconnect with exponential
// backoff, a retained Last Will on areacore/system/status for crash
// detection, and a graceful offline status on Close.
//
// The broker is optional; when mqtt.enabled is false in config the
// client is never constructed and the mqtt service is not registered.
package mqtt
