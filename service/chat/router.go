package chat

import (
	"context"

	"CommLink/logger"
)

// MessageStatusStore is the persistence collaborator behind the
// read-receipt path. UpdateMessageStatus flips the stored status and
// returns the message's original sender, who is the receipt's target.
type MessageStatusStore interface {
	UpdateMessageStatus(ctx context.Context, messageID, status string) (senderID string, err error)
}

const statusRead = "read"

// Router forwards inbound realtime events to their recipient's live
// connection. The realtime path is best effort end to end: an offline
// recipient means the event is dropped, and the sender is never told.
// Durability belongs to the message store, not here.
type Router struct {
	reg   *Registry
	store MessageStatusStore
}

func NewRouter(reg *Registry, store MessageStatusStore) *Router {
	return &Router{reg: reg, store: store}
}

// Route dispatches one inbound frame from a connected client. Closed
// dispatch over the five known kinds; unknown kinds and frames missing
// their addressing field are dropped, never surfaced as errors.
func (r *Router) Route(ctx context.Context, from *Client, f *Frame) {
	if f == nil {
		return
	}
	switch f.Event {
	case EventNewMessage, EventNewNotification:
		r.routePassthrough(from, f)
	case EventTyping:
		r.routeTyping(from, f)
	case EventStopTyping:
		r.routeStopTyping(from, f)
	case EventMessageRead:
		r.routeMessageRead(ctx, from, f)
	default:
		logger.Debugf("[router] ignore unknown event=%q conn=%s", f.Event, connID(from))
	}
}

// newMessage / newNotification travel verbatim: same kind, same body.
func (r *Router) routePassthrough(from *Client, f *Frame) {
	addr, err := decodePayload[AddressPayload](f)
	if err != nil || addr.ReceiverID == "" {
		logger.Debugf("[router] drop %s without receiverId conn=%s", f.Event, connID(from))
		return
	}
	payload, err := BuildFrame(f.Event, f.Data)
	if err != nil {
		logger.Errorf("[router] rebuild %s frame: %v", f.Event, err)
		return
	}
	r.deliver(addr.ReceiverID, payload)
}

func (r *Router) routeTyping(from *Client, f *Frame) {
	p, err := decodePayload[TypingPayload](f)
	if err != nil || p.ReceiverID == "" {
		logger.Debugf("[router] drop typing without receiverId conn=%s", connID(from))
		return
	}
	userID := p.UserID
	if userID == "" && from != nil {
		userID = from.UserID
	}
	payload, err := BuildFrame(EventUserTyping, map[string]string{"userId": userID})
	if err != nil {
		logger.Errorf("[router] build userTyping frame: %v", err)
		return
	}
	r.deliver(p.ReceiverID, payload)
}

func (r *Router) routeStopTyping(from *Client, f *Frame) {
	p, err := decodePayload[StopTypingPayload](f)
	if err != nil || p.ReceiverID == "" {
		logger.Debugf("[router] drop stopTyping without receiverId conn=%s", connID(from))
		return
	}
	payload, err := BuildFrame(EventUserStoppedTyping, nil)
	if err != nil {
		logger.Errorf("[router] build userStoppedTyping frame: %v", err)
		return
	}
	r.deliver(p.ReceiverID, payload)
}

// A read receipt travels backward: persist the status flip first, then
// push messageRead to the original sender's connection if it is live.
func (r *Router) routeMessageRead(ctx context.Context, from *Client, f *Frame) {
	p, err := decodePayload[MessageReadPayload](f)
	if err != nil || p.MessageID == "" {
		logger.Debugf("[router] drop messageRead without messageId conn=%s", connID(from))
		return
	}
	if r.store == nil {
		logger.Warnf("[router] no message store, drop messageRead id=%s", p.MessageID)
		return
	}
	senderID, err := r.store.UpdateMessageStatus(ctx, p.MessageID, statusRead)
	if err != nil {
		logger.Errorf("[router] mark read failed id=%s err=%v", p.MessageID, err)
		return
	}
	payload, err := BuildFrame(EventMessageRead, map[string]string{"messageId": p.MessageID})
	if err != nil {
		logger.Errorf("[router] build messageRead frame: %v", err)
		return
	}
	r.deliver(senderID, payload)
}

// deliver pushes a payload to the target user's connection. Not
// connected is the normal best-effort outcome, not an error.
func (r *Router) deliver(userID string, payload []byte) bool {
	c := r.reg.Lookup(userID)
	if c == nil {
		logger.Debugf("[router] recipient offline, drop user=%s", userID)
		return false
	}
	return c.Enqueue(payload)
}

func connID(c *Client) string {
	if c == nil {
		return ""
	}
	return c.ConnID
}
