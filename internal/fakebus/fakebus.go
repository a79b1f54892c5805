// Package fakebus is an in-memory test double for core.BusClient: it
// records every call instead of talking to a real service, and lets a test
// script deliveries through Enqueue.
package fakebus

import (
	"context"
	"sync"

	"github.com/fastpubsub/fastpubsub/core"
)

// Bus is an in-memory core.BusClient double.
type Bus struct {
	mu sync.Mutex

	CreatedTopics        []string
	CreatedSubscriptions []string
	UpdatedSubscriptions []string
	Acked                [][]string
	Nacked               [][]string
	Published            []PublishedMessage

	// Queue holds pending deliveries per subscription name; Pull drains
	// them in FIFO order.
	Queue map[string][]core.ReceivedMessage

	// NextErr, when set, is returned (and cleared) by the next Pull call.
	NextErr error

	// PullErrs, when set for a subscription, is returned (and cleared) by
	// that subscription's next Pull. Lets a test fail one poll task while
	// its siblings keep pulling cleanly.
	PullErrs map[string]error

	// UpdateErr, when set, is returned by every UpdateSubscription call.
	UpdateErr error
}

// PublishedMessage records one Publish call's arguments.
type PublishedMessage struct {
	ProjectID   string
	TopicName   string
	Data        []byte
	OrderingKey string
	Attributes  map[string]string
}

// New returns an empty Bus ready for use.
func New() *Bus {
	return &Bus{Queue: make(map[string][]core.ReceivedMessage)}
}

// AckedCount reports how many Ack calls have been recorded so far. Safe to
// poll from a test while a poll task is still running.
func (b *Bus) AckedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Acked)
}

// NackedCount mirrors AckedCount for Nack calls.
func (b *Bus) NackedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Nacked)
}

// Enqueue schedules msgs to be returned by the next Pull(subscriptionName).
func (b *Bus) Enqueue(subscriptionName string, msgs ...core.ReceivedMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Queue[subscriptionName] = append(b.Queue[subscriptionName], msgs...)
}

// SetPullErr schedules err to be returned by subscriptionName's next Pull.
func (b *Bus) SetPullErr(subscriptionName string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PullErrs == nil {
		b.PullErrs = make(map[string]error)
	}
	b.PullErrs[subscriptionName] = err
}

func (b *Bus) CreateTopic(ctx context.Context, projectID, topicName string, createDefaultSubscription bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CreatedTopics = append(b.CreatedTopics, projectID+"/"+topicName)
	return nil
}

func (b *Bus) CreateSubscription(ctx context.Context, projectID, topicName, subscriptionName string, retry core.MessageRetryPolicy, delivery core.MessageDeliveryPolicy, dlq *core.DeadLetterPolicy) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CreatedSubscriptions = append(b.CreatedSubscriptions, subscriptionName)
	return nil
}

func (b *Bus) UpdateSubscription(ctx context.Context, projectID, subscriptionName string, retry core.MessageRetryPolicy, delivery core.MessageDeliveryPolicy, dlq *core.DeadLetterPolicy) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.UpdateErr != nil {
		return b.UpdateErr
	}
	b.UpdatedSubscriptions = append(b.UpdatedSubscriptions, subscriptionName)
	return nil
}

func (b *Bus) Pull(ctx context.Context, projectID, subscriptionName string, maxMessages int) ([]core.ReceivedMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.NextErr != nil {
		err := b.NextErr
		b.NextErr = nil
		return nil, err
	}
	if err := b.PullErrs[subscriptionName]; err != nil {
		delete(b.PullErrs, subscriptionName)
		return nil, err
	}

	msgs := b.Queue[subscriptionName]
	if len(msgs) > maxMessages {
		b.Queue[subscriptionName] = msgs[maxMessages:]
		return msgs[:maxMessages], nil
	}
	delete(b.Queue, subscriptionName)
	return msgs, nil
}

func (b *Bus) Ack(ctx context.Context, projectID, subscriptionName string, ackTokens []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Acked = append(b.Acked, ackTokens)
	return nil
}

func (b *Bus) Nack(ctx context.Context, projectID, subscriptionName string, ackTokens []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Nacked = append(b.Nacked, ackTokens)
	return nil
}

func (b *Bus) Publish(ctx context.Context, projectID, topicName string, data []byte, orderingKey string, attributes map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Published = append(b.Published, PublishedMessage{
		ProjectID:   projectID,
		TopicName:   topicName,
		Data:        data,
		OrderingKey: orderingKey,
		Attributes:  attributes,
	})
	return nil
}
