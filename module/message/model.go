package message

// Message statuses as stored.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// Message is a direct message between two users. ID and CreateTime are
// assigned by the store at insert; a Message without them has no
// durable identity yet.
type Message struct {
	ID         string `bson:"_id" json:"id"`
	SenderID   string `bson:"sender_id" json:"senderId"`
	ReceiverID string `bson:"receiver_id" json:"receiverId"`
	Text       string `bson:"text,omitempty" json:"text,omitempty"`
	Image      string `bson:"image,omitempty" json:"image,omitempty"`
	Status     string `bson:"status" json:"status"`
	CreateTime int64  `bson:"create_time" json:"createTime"`
}

// Receiver implements chat.PersistedMessage.
func (m *Message) Receiver() string { return m.ReceiverID }
