// Package protocol defines the messages exchanged on the status WebSocket.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeStatus is sent by the server whenever the displayed status changes
	TypeStatus MessageType = "status"

	// TypeProfile is sent by the server after the active profile changed,
	// and by a client to request a profile switch
	TypeProfile MessageType = "profile"

	// TypePause is sent by a client to pause or resume key output
	TypePause MessageType = "pause"

	// TypeSyncRequest is sent by a client to request the current status and profile list
	TypeSyncRequest MessageType = "sync_req"

	// TypeSyncResponse answers TypeSyncRequest
	TypeSyncResponse MessageType = "sync_resp"

	// TypeError reports a rejected client request
	TypeError MessageType = "error"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ProfilePayload is the payload for TypeProfile
type ProfilePayload struct {
	Profile string `json:"profile"`
}

// PausePayload is the payload for TypePause
type PausePayload struct {
	Paused bool `json:"paused"`
}

// SyncResponsePayload is the payload for TypeSyncResponse. Status is kept
// opaque so this package does not depend on the controller.
type SyncResponsePayload struct {
	Status   any      `json:"status"`
	Profile  string   `json:"profile"`
	Profiles []string `json:"profiles"`
}

// ErrorPayload is the payload for TypeError
type ErrorPayload struct {
	Error string `json:"error"`
}

// Encode builds a message of type t carrying payload
func Encode(t MessageType, payload any) ([]byte, error) {
	msg := Message{Type: t}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", t, err)
		}
		msg.Payload = raw
	}
	return json.Marshal(msg)
}

// Decode parses data into a message
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("invalid message: %w", err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("invalid message: missing type")
	}
	return msg, nil
}

// DecodePayload unmarshals the payload of msg into v
func DecodePayload(msg Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", msg.Type, err)
	}
	return nil
}
