// Package gcppubsub implements core.BusClient against the Google Cloud
// Pub/Sub SDK: idempotent topic/subscription provisioning, bounded unary
// pulls, and ack/nack resolution back to live SDK message handles.
package gcppubsub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fastpubsub/fastpubsub/core"
)

// defaultOperationTimeout bounds every bus call.
const defaultOperationTimeout = 10 * time.Second

// Client wraps *pubsub.Client per project, implementing core.BusClient. It
// is safe for concurrent use; each poll task shares one Client.
type Client struct {
	mu      sync.Mutex
	clients map[string]*pubsub.Client
	opts    []option.ClientOption
	acks    *ackRegistry
}

// NewClient constructs an empty Client. Per-project *pubsub.Client handles
// are created lazily on first use and cached, since the topic/subscription
// names in this codebase are always scoped to a single project id known
// only at call time.
func NewClient(opts ...option.ClientOption) *Client {
	return &Client{clients: make(map[string]*pubsub.Client), opts: opts, acks: newAckRegistry()}
}

func (c *Client) projectClient(ctx context.Context, projectID string) (*pubsub.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[projectID]; ok {
		return cl, nil
	}
	cl, err := pubsub.NewClient(ctx, projectID, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("gcppubsub: new client for project %q: %w", projectID, err)
	}
	c.clients[projectID] = cl
	return cl, nil
}

// CreateTopic idempotently creates topicName, treating AlreadyExists as
// success.
func (c *Client) CreateTopic(ctx context.Context, projectID, topicName string, createDefaultSubscription bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultOperationTimeout)
	defer cancel()

	cl, err := c.projectClient(ctx, projectID)
	if err != nil {
		return err
	}

	topic, err := cl.CreateTopic(ctx, topicName)
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("gcppubsub: create topic %q: %w", topicName, err)
	}
	if err != nil {
		topic = cl.Topic(topicName)
	}

	if createDefaultSubscription {
		subName := topicName + "-default"
		_, err := cl.CreateSubscription(ctx, subName, pubsub.SubscriptionConfig{Topic: topic})
		if err != nil && status.Code(err) != codes.AlreadyExists {
			return fmt.Errorf("gcppubsub: create default subscription %q: %w", subName, err)
		}
	}
	return nil
}

// CreateSubscription idempotently creates subscriptionName bound to
// topicName with the given policies.
func (c *Client) CreateSubscription(ctx context.Context, projectID, topicName, subscriptionName string, retry core.MessageRetryPolicy, delivery core.MessageDeliveryPolicy, dlq *core.DeadLetterPolicy) error {
	ctx, cancel := context.WithTimeout(ctx, defaultOperationTimeout)
	defer cancel()

	cl, err := c.projectClient(ctx, projectID)
	if err != nil {
		return err
	}

	cfg := pubsub.SubscriptionConfig{
		Topic:                     cl.Topic(topicName),
		AckDeadline:               time.Duration(delivery.AckDeadlineSeconds) * time.Second,
		EnableMessageOrdering:     delivery.EnableMessageOrdering,
		EnableExactlyOnceDelivery: delivery.EnableExactlyOnceDelivery,
		Filter:                    delivery.FilterExpression,
		RetryPolicy: &pubsub.RetryPolicy{
			MinimumBackoff: time.Duration(retry.MinBackoffSecs) * time.Second,
			MaximumBackoff: time.Duration(retry.MaxBackoffSecs) * time.Second,
		},
	}
	if dlq != nil {
		cfg.DeadLetterPolicy = &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     fmt.Sprintf("projects/%s/topics/%s", projectID, dlq.TopicName),
			MaxDeliveryAttempts: dlq.MaxDeliveryAttempts,
		}
	}

	_, err = cl.CreateSubscription(ctx, subscriptionName, cfg)
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("gcppubsub: create subscription %q: %w", subscriptionName, err)
	}
	return nil
}

// UpdateSubscription updates subscriptionName in place. The update mask
// always covers ack_deadline_seconds, dead_letter_policy, retry_policy,
// enable_exactly_once_delivery; filter is added only when emulator is
// false, since the emulator rejects filter updates.
func (c *Client) UpdateSubscription(ctx context.Context, projectID, subscriptionName string, retry core.MessageRetryPolicy, delivery core.MessageDeliveryPolicy, dlq *core.DeadLetterPolicy) error {
	return c.updateSubscription(ctx, projectID, subscriptionName, retry, delivery, dlq, EmulatorMode())
}

func (c *Client) updateSubscription(ctx context.Context, projectID, subscriptionName string, retry core.MessageRetryPolicy, delivery core.MessageDeliveryPolicy, dlq *core.DeadLetterPolicy, emulator bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultOperationTimeout)
	defer cancel()

	cl, err := c.projectClient(ctx, projectID)
	if err != nil {
		return err
	}

	sub := cl.Subscription(subscriptionName)
	cfg := pubsub.SubscriptionConfigToUpdate{
		AckDeadline:               time.Duration(delivery.AckDeadlineSeconds) * time.Second,
		EnableExactlyOnceDelivery: delivery.EnableExactlyOnceDelivery,
		RetryPolicy: &pubsub.RetryPolicy{
			MinimumBackoff: time.Duration(retry.MinBackoffSecs) * time.Second,
			MaximumBackoff: time.Duration(retry.MaxBackoffSecs) * time.Second,
		},
	}
	if dlq != nil {
		cfg.DeadLetterPolicy = &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     fmt.Sprintf("projects/%s/topics/%s", projectID, dlq.TopicName),
			MaxDeliveryAttempts: dlq.MaxDeliveryAttempts,
		}
	}
	if !emulator {
		cfg.Filter = delivery.FilterExpression
	}

	if _, err := sub.Update(ctx, cfg); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: %s", core.ErrSubscriptionNotProvisioned, subscriptionName)
		}
		return fmt.Errorf("gcppubsub: update subscription %q: %w", subscriptionName, err)
	}
	return nil
}

// Pull issues a bounded, unary pull: one batch of at most maxMessages,
// synchronous from the caller's viewpoint. Built on top of
// Subscription.Receive by cancelling the receive context once the batch is
// full or the operation timeout, counted from the start of the pull,
// elapses.
func (c *Client) Pull(ctx context.Context, projectID, subscriptionName string, maxMessages int) ([]core.ReceivedMessage, error) {
	cl, err := c.projectClient(ctx, projectID)
	if err != nil {
		return nil, err
	}

	sub := cl.Subscription(subscriptionName)
	sub.ReceiveSettings.Synchronous = true
	sub.ReceiveSettings.NumGoroutines = 1
	sub.ReceiveSettings.MaxOutstandingMessages = maxMessages

	pullCtx, cancel := context.WithTimeout(ctx, defaultOperationTimeout)
	defer cancel()

	var (
		batchMu  sync.Mutex
		received []core.ReceivedMessage
	)
	err = sub.Receive(pullCtx, func(msgCtx context.Context, m *pubsub.Message) {
		batchMu.Lock()
		received = append(received, core.ReceivedMessage{
			MessageID:       m.ID,
			Data:            m.Data,
			Attributes:      m.Attributes,
			AckID:           m.ID,
			DeliveryAttempt: deliveryAttempt(m),
		})
		full := len(received) >= maxMessages
		batchMu.Unlock()
		c.retainForAck(subscriptionName, m)
		if full {
			cancel()
		}
	})
	if err != nil && pullCtx.Err() == nil {
		return nil, fmt.Errorf("gcppubsub: pull %q: %w", subscriptionName, err)
	}
	return received, nil
}

func deliveryAttempt(m *pubsub.Message) int {
	if m.DeliveryAttempt != nil {
		return *m.DeliveryAttempt
	}
	return 0
}

// Publish publishes data to topicName and blocks for the server
// acknowledgement.
func (c *Client) Publish(ctx context.Context, projectID, topicName string, data []byte, orderingKey string, attributes map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultOperationTimeout)
	defer cancel()

	cl, err := c.projectClient(ctx, projectID)
	if err != nil {
		return err
	}

	topic := cl.Topic(topicName)
	topic.EnableMessageOrdering = orderingKey != ""
	result := topic.Publish(ctx, &pubsub.Message{
		Data:        data,
		Attributes:  attributes,
		OrderingKey: orderingKey,
	})
	_, err = result.Get(ctx)
	if err != nil {
		return fmt.Errorf("gcppubsub: publish to %q: %w", topicName, err)
	}
	return nil
}
