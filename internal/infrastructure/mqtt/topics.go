package mqtt

import "fmt"

// Topic prefixes. All AREA Core topics live under a single root:
//
//	areacore/system/...   lifecycle and status
//	areacore/events/...   engine events mirrored to the broker
//	areacore/user/...     payloads published by the publish_message reaction
const (
	// TopicPrefix is the base for all AREA Core topics.
	TopicPrefix = "areacore"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "areacore/system"

	// TopicPrefixEvents is the base for engine event topics.
	TopicPrefixEvents = "areacore/events"

	// TopicPrefixUser is the base for user-published payloads.
	TopicPrefixUser = "areacore/user"
)

// Topics provides builders for AREA Core MQTT topics. Using these helpers
// keeps topic naming consistent across the codebase.
type Topics struct{}

// SystemStatus returns the topic carrying online/offline status.
//
// Example: areacore/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// Event returns the topic for one engine event type.
//
// Example: areacore/events/area.fired
func (Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixEvents, eventType)
}

// User returns the topic for a payload published on a user's behalf by
// the publish_message reaction. The user segment keeps tenants apart on
// a shared broker.
//
// Example: areacore/user/42f1.../alerts/kitchen
func (Topics) User(userID, suffix string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixUser, userID, suffix)
}
