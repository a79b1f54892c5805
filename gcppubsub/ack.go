package gcppubsub

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
)

// ackRegistry retains the live *pubsub.Message for the duration of one pull
// cycle, keyed by subscription name + ack token, so Ack/Nack (which the
// core only ever calls with the opaque ack token) can resolve back to the
// SDK object whose Ack()/Nack() closures actually talk to the bus.
type ackRegistry struct {
	mu      sync.Mutex
	pending map[string]*pubsub.Message
}

func newAckRegistry() *ackRegistry {
	return &ackRegistry{pending: make(map[string]*pubsub.Message)}
}

func ackKey(subscriptionName, ackID string) string {
	return subscriptionName + "/" + ackID
}

func (c *Client) retainForAck(subscriptionName string, m *pubsub.Message) {
	c.acks.mu.Lock()
	defer c.acks.mu.Unlock()
	c.acks.pending[ackKey(subscriptionName, m.ID)] = m
}

func (c *Client) takeRetained(subscriptionName, ackID string) (*pubsub.Message, bool) {
	c.acks.mu.Lock()
	defer c.acks.mu.Unlock()
	key := ackKey(subscriptionName, ackID)
	m, ok := c.acks.pending[key]
	if ok {
		delete(c.acks.pending, key)
	}
	return m, ok
}

// Ack acknowledges every token, looking each one up in the retained-message
// registry populated by Pull.
func (c *Client) Ack(ctx context.Context, projectID, subscriptionName string, ackTokens []string) error {
	for _, token := range ackTokens {
		m, ok := c.takeRetained(subscriptionName, token)
		if !ok {
			return fmt.Errorf("gcppubsub: ack %q: message not found (pull cycle expired?)", token)
		}
		m.Ack()
	}
	return nil
}

// Nack negatively acknowledges every token, equivalent to setting the ack
// deadline to zero so the bus redelivers immediately.
func (c *Client) Nack(ctx context.Context, projectID, subscriptionName string, ackTokens []string) error {
	for _, token := range ackTokens {
		m, ok := c.takeRetained(subscriptionName, token)
		if !ok {
			return fmt.Errorf("gcppubsub: nack %q: message not found (pull cycle expired?)", token)
		}
		m.Nack()
	}
	return nil
}
