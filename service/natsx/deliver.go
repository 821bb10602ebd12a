package natsx

import (
	"github.com/nats-io/nats.go"
)

// SubjectMessageDeliver carries freshly persisted messages from the
// HTTP send path to every gateway node's delivery bridge.
const SubjectMessageDeliver = "commlink.message.deliver"

func (c *Client) PublishPersistedMessage(data []byte) error {
	return c.Publish(SubjectMessageDeliver, data)
}

func (c *Client) SubscribePersistedMessages(h func(data []byte)) (*nats.Subscription, error) {
	return c.Subscribe(SubjectMessageDeliver, h)
}
