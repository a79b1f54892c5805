package core

import (
	"context"
	"fmt"
	"sync"
)

// SubscriptionBuilder idempotently reconciles bus state against declared
// subscribers, deduplicating topic creation within a startup cycle.
type SubscriptionBuilder struct {
	bus      BusClient
	emulator bool

	mu            sync.Mutex
	createdTopics map[string]bool
}

// NewSubscriptionBuilder constructs a builder. emulator should reflect
// whether PUBSUB_EMULATOR_HOST is set, since the emulator rejects filter
// updates on subscriptions.
func NewSubscriptionBuilder(bus BusClient, emulator bool) *SubscriptionBuilder {
	return &SubscriptionBuilder{bus: bus, emulator: emulator, createdTopics: make(map[string]bool)}
}

// Build provisions or updates the bus resources for one subscriber,
// according to its lifecycle policy.
func (b *SubscriptionBuilder) Build(ctx context.Context, s *Subscriber) error {
	if s.Lifecycle.Autocreate {
		if err := b.createTopicOnce(ctx, s.ProjectID, s.TopicName, false); err != nil {
			return err
		}
		if s.DeadLetter != nil {
			if err := b.createTopicOnce(ctx, s.ProjectID, s.DeadLetter.TopicName, true); err != nil {
				return err
			}
		}
		if err := b.bus.CreateSubscription(ctx, s.ProjectID, s.TopicName, s.SubscriptionName, s.Retry, s.Delivery, s.DeadLetter); err != nil {
			return err
		}
	}

	if s.Lifecycle.Autoupdate {
		// The bus client surfaces a missing subscription as
		// ErrSubscriptionNotProvisioned; other failures keep their own
		// identity rather than being misreported as provisioning gaps.
		if err := b.bus.UpdateSubscription(ctx, s.ProjectID, s.SubscriptionName, s.Retry, s.Delivery, s.DeadLetter); err != nil {
			return fmt.Errorf("updating subscription %q: %w", s.SubscriptionName, err)
		}
	}

	return nil
}

// createTopicOnce makes sure topicName is only ever passed to
// BusClient.CreateTopic once per builder lifetime, even if multiple
// subscribers target it.
func (b *SubscriptionBuilder) createTopicOnce(ctx context.Context, projectID, topicName string, createDefaultSubscription bool) error {
	key := projectID + "/" + topicName

	b.mu.Lock()
	if b.createdTopics[key] {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if err := b.bus.CreateTopic(ctx, projectID, topicName, createDefaultSubscription); err != nil {
		return err
	}

	b.mu.Lock()
	b.createdTopics[key] = true
	b.mu.Unlock()
	return nil
}

// EmulatorMode reports whether this builder was constructed against an
// emulator. The flag is not passed to the bus client: gcppubsub decides
// whether filter goes into an update mask from PUBSUB_EMULATOR_HOST itself.
func (b *SubscriptionBuilder) EmulatorMode() bool { return b.emulator }
