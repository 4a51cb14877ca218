package mqtt

import (
	"bytes"
	"errors"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "system status", got: topics.SystemStatus(), want: "areacore/system/status"},
		{name: "event", got: topics.Event("area.fired"), want: "areacore/events/area.fired"},
		{name: "user", got: topics.User("u1", "alerts/kitchen"), want: "areacore/user/u1/alerts/kitchen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPublish_Validation(t *testing.T) {
	c := &Client{}

	if err := c.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: got %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("areacore/user/u1/x", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos 3: got %v, want ErrInvalidQoS", err)
	}
	big := bytes.Repeat([]byte("a"), maxPayloadSize+1)
	if err := c.Publish("areacore/user/u1/x", big, 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversized payload: got %v, want ErrPublishFailed", err)
	}
	if err := c.Publish("areacore/user/u1/x", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected: got %v, want ErrNotConnected", err)
	}
}

func TestBuildOnlinePayload(t *testing.T) {
	p := buildOnlinePayload("areacore")
	if !bytes.Contains([]byte(p), []byte(`"status":"online"`)) {
		t.Errorf("payload missing online status: %s", p)
	}
	if !bytes.Contains([]byte(p), []byte(`"client_id":"areacore"`)) {
		t.Errorf("payload missing client id: %s", p)
	}
}
