package natsx

import (
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"CommLink/tools/errs"
)

// Config holds NATS client settings.
type Config struct {
	Servers       []string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// Client is a thin wrapper over a core-NATS connection: publish and
// subscribe, nothing durable. Delivery guarantees stay with the
// message store, not the wire.
type Client struct {
	cfg Config
	nc  *nats.Conn
}

func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, errs.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, errs.WrapMsg(err, "nats connect")
	}
	return &Client{cfg: cfg, nc: nc}, nil
}

func (c *Client) Publish(subject string, data []byte) error {
	return c.nc.Publish(subject, data)
}

// Subscribe fans the subject out to every node (no queue group): each
// gateway checks its own registry for the receiver.
func (c *Client) Subscribe(subject string, h func(data []byte)) (*nats.Subscription, error) {
	return c.nc.Subscribe(subject, func(m *nats.Msg) { h(m.Data) })
}

func (c *Client) Close() {
	if c.nc != nil {
		c.nc.Close()
	}
}
