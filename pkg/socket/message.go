package socket

import (
	"fmt"

	"github.com/sockline/sockline/pkg/codec"
)

// Reserved topic and events of the channel protocol.
const (
	// TopicControl is the control topic heartbeats are sent on.
	TopicControl = "phoenix"

	EventJoin      = "phx_join"
	EventLeave     = "phx_leave"
	EventReply     = "phx_reply"
	EventError     = "phx_error"
	EventClose     = "phx_close"
	EventHeartbeat = "heartbeat"
)

// Message is one frame of the channel protocol. On the wire it is the
// five-element array [joinRef, ref, topic, event, payload]; empty JoinRef
// and Ref encode as null.
type Message struct {
	// JoinRef ties the message to a channel join lifecycle.
	JoinRef string
	// Ref identifies a push so its reply can be routed back.
	Ref string
	// Topic is the channel topic, e.g. "room:lobby".
	Topic string
	// Event is the message event, either a reserved phx_* event or
	// application-defined.
	Event string
	// Payload is the event payload, decoded through the configured codec.
	Payload any
}

// ReplyStatus returns the status field of a phx_reply payload, or "".
func (m *Message) ReplyStatus() string {
	payload, ok := m.Payload.(map[string]any)
	if !ok {
		return ""
	}
	status, _ := payload["status"].(string)
	return status
}

// ReplyResponse returns the response field of a phx_reply payload, or nil.
func (m *Message) ReplyResponse() any {
	payload, ok := m.Payload.(map[string]any)
	if !ok {
		return nil
	}
	return payload["response"]
}

// EncodeMessage serializes m through c into its wire frame.
func EncodeMessage(c codec.Codec, m *Message) ([]byte, error) {
	frame := []any{
		nullableRef(m.JoinRef),
		nullableRef(m.Ref),
		m.Topic,
		m.Event,
		m.Payload,
	}
	data, err := c.Encode(frame)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", m.Topic, m.Event, err)
	}
	return data, nil
}

// DecodeMessage deserializes a wire frame through c.
func DecodeMessage(c codec.Codec, data []byte) (*Message, error) {
	var frame []any
	if err := c.Decode(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if len(frame) != 5 {
		return nil, fmt.Errorf("%w: got %d elements, want 5", ErrBadFrame, len(frame))
	}

	topic, topicOK := frame[2].(string)
	event, eventOK := frame[3].(string)
	if !topicOK || !eventOK {
		return nil, fmt.Errorf("%w: topic and event must be strings", ErrBadFrame)
	}

	return &Message{
		JoinRef: refString(frame[0]),
		Ref:     refString(frame[1]),
		Topic:   topic,
		Event:   event,
		Payload: frame[4],
	}, nil
}

func nullableRef(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func refString(v any) string {
	s, _ := v.(string)
	return s
}
