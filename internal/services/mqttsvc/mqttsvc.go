// Package mqttsvc exposes the shared broker connection as an automation
// service: a publish_message reaction that delivers the trigger's event,
// or a fixed payload, to a topic under the caller's user namespace.
package mqttsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/area-labs/area-core/internal/infrastructure/mqtt"
	"github.com/area-labs/area-core/internal/plugin"
)

// Publisher is the broker capability the service needs. Implemented by
// *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	DefaultQoS() byte
}

// Service is the mqtt service. Registered only when the broker is
// enabled in config.
type Service struct {
	pub Publisher
}

// New creates the mqtt service around a connected broker client.
func New(pub Publisher) *Service {
	return &Service{pub: pub}
}

func (s *Service) Name() string        { return "mqtt" }
func (s *Service) Description() string { return "Publish to the MQTT broker" }
func (s *Service) Category() string    { return "messaging" }
func (s *Service) Colour() string      { return "#660066" }
func (s *Service) RequiresAuth() bool  { return false }

func (s *Service) Actions() []plugin.Action { return nil }

func (s *Service) Reactions() []plugin.Reaction {
	return []plugin.Reaction{&publishMessage{svc: s}}
}

// publishMessage publishes under areacore/user/{user_id}/{topic}. The
// configured topic is a suffix; the user namespace is not overridable, so
// one tenant cannot publish into another's topics.
type publishMessage struct {
	svc *Service
}

func (r *publishMessage) Name() string        { return "publish_message" }
func (r *publishMessage) Description() string { return "Publish a message to an MQTT topic" }

func (r *publishMessage) Schema() []plugin.ConfigField {
	return []plugin.ConfigField{
		{Name: "topic", Type: plugin.FieldString, Required: true,
			Description: "Topic suffix under your user namespace"},
		{Name: "payload", Type: plugin.FieldString, Required: false,
			Description: "Fixed payload; the trigger event is sent when empty"},
	}
}

func (r *publishMessage) Execute(_ context.Context, req plugin.ExecuteRequest) error {
	suffix, ok := plugin.String(req.Config, "topic")
	if !ok || suffix == "" {
		return fmt.Errorf("%w: topic", plugin.ErrMissingConfig)
	}
	suffix = strings.Trim(suffix, "/")
	if strings.Contains(suffix, "#") || strings.Contains(suffix, "+") {
		return fmt.Errorf("%w: topic must not contain wildcards", plugin.ErrBadConfig)
	}

	var payload []byte
	if fixed, ok := plugin.String(req.Config, "payload"); ok && fixed != "" {
		payload = []byte(fixed)
	} else {
		encoded, err := json.Marshal(map[string]any{
			"area_id": req.AreaID,
			"event":   req.Event,
		})
		if err != nil {
			return fmt.Errorf("mqttsvc: encoding event: %w", err)
		}
		payload = encoded
	}

	topic := mqtt.Topics{}.User(req.UserID, suffix)
	return r.svc.pub.Publish(topic, payload, r.svc.pub.DefaultQoS(), false)
}
