package plugin

import (
	"encoding/json"
	"fmt"
)

// stateVersion is the current envelope version. Bump when the envelope
// layout changes; Decode rejects versions it does not understand so a
// downgraded binary never misreads newer snapshots.
const stateVersion = 1

// envelope is the stored form of a binding's last_state.
type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// State is a binding's last_state snapshot as handed to an Action's Check.
//
// Checks call Seen to distinguish a first evaluation, Decode to read the
// previous snapshot, and Set to store the new one. The evaluator persists
// the envelope after Check returns, but only when Set was called.
//
// Not safe for concurrent use; each Check owns its State exclusively for
// the duration of the call.
type State struct {
	raw   json.RawMessage
	dirty bool
}

// NewState wraps a stored envelope. raw is nil for a never-checked binding.
func NewState(raw json.RawMessage) *State {
	return &State{raw: raw}
}

// Seen reports whether a snapshot has ever been stored.
func (s *State) Seen() bool {
	return len(s.raw) > 0
}

// Decode unmarshals the snapshot data into v.
// Calling Decode on an unseen State is a programming error.
func (s *State) Decode(v any) error {
	if !s.Seen() {
		return fmt.Errorf("plugin: decoding unseen state")
	}

	var env envelope
	if err := json.Unmarshal(s.raw, &env); err != nil {
		return fmt.Errorf("parsing state envelope: %w", err)
	}
	if env.Version != stateVersion {
		return fmt.Errorf("%w: %d", ErrStateVersion, env.Version)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decoding state data: %w", err)
	}
	return nil
}

// Set replaces the snapshot with v and marks the State dirty.
func (s *State) Set(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding state data: %w", err)
	}

	raw, err := json.Marshal(envelope{Version: stateVersion, Data: data})
	if err != nil {
		return fmt.Errorf("encoding state envelope: %w", err)
	}

	s.raw = raw
	s.dirty = true
	return nil
}

// Raw returns the stored envelope for persistence.
func (s *State) Raw() json.RawMessage {
	return s.raw
}

// Dirty reports whether Set was called since the State was created.
// The evaluator skips the last_state write when nothing changed.
func (s *State) Dirty() bool {
	return s.dirty
}
