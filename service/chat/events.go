package chat

import (
	"encoding/json"

	"CommLink/tools/decode"
	"CommLink/tools/errs"
)

// Inbound event kinds. The set is closed: anything else is ignored.
const (
	EventNewMessage      = "newMessage"
	EventTyping          = "typing"
	EventStopTyping      = "stopTyping"
	EventMessageRead     = "messageRead"
	EventNewNotification = "newNotification"
)

// Outbound-only event kinds (the recipient's view of an inbound kind).
const (
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"
	EventOnlineUsers       = "getOnlineUsers"
)

// Frame is the wire envelope for realtime events, both directions:
// {"event": "...", "data": {...}}
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ParseFrame decodes raw bytes into a Frame. An empty event name is a
// malformed frame.
func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, errs.WrapMsg(err, "unmarshal frame")
	}
	if f.Event == "" {
		return nil, errs.New("frame missing event")
	}
	return f, nil
}

// BuildFrame encodes an outbound frame.
func BuildFrame(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, errs.WrapMsg(err, "marshal frame data", "event", event)
		}
		raw = b
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// Typed payloads for the closed event set.

type TypingPayload struct {
	UserID     string `json:"userId"`
	ReceiverID string `json:"receiverId"`
}

type StopTypingPayload struct {
	ReceiverID string `json:"receiverId"`
}

type MessageReadPayload struct {
	MessageID  string `json:"messageId"`
	ReceiverID string `json:"receiverId"`
}

// AddressPayload extracts only the addressing field of passthrough
// events (newMessage, newNotification); their bodies travel verbatim.
type AddressPayload struct {
	ReceiverID string `json:"receiverId"`
}

// decodePayload maps a frame's data object into a typed payload.
// Numeric IDs sent by sloppy clients coerce to strings.
func decodePayload[T any](f *Frame) (*T, error) {
	m := map[string]any{}
	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, &m); err != nil {
			return nil, errs.WrapMsg(err, "frame data not an object", "event", f.Event)
		}
	}
	return decode.DecodeMap[T](m)
}
