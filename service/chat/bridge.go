package chat

import (
	"CommLink/logger"
)

// PersistedMessage is a message that already has a durable identity:
// the store assigned its ID and timestamp before we ever see it here.
type PersistedMessage interface {
	Receiver() string
}

// Bridge pushes durably persisted messages to the receiver's live
// connection. The HTTP send path (or the NATS dispatch consumer on
// multi-node setups) invokes it once per stored message.
type Bridge struct {
	reg *Registry
}

func NewBridge(reg *Registry) *Bridge {
	return &Bridge{reg: reg}
}

// DeliverPersistedMessage pushes the full message object to the
// receiver as newMessage. Returns whether a live connection took it;
// false means the receiver will pick it up from history instead.
func (b *Bridge) DeliverPersistedMessage(msg PersistedMessage) bool {
	if msg == nil {
		return false
	}
	to := msg.Receiver()
	if to == "" {
		logger.Debugf("[bridge] persisted message without receiver, drop")
		return false
	}
	c := b.reg.Lookup(to)
	if c == nil {
		return false
	}
	payload, err := BuildFrame(EventNewMessage, msg)
	if err != nil {
		logger.Errorf("[bridge] build newMessage frame: %v", err)
		return false
	}
	return c.Enqueue(payload)
}
