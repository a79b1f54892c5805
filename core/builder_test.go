package core_test

import (
	"context"
	"testing"

	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/internal/fakebus"
)

// Autocreate passes each topic name to CreateTopic at most once per
// startup cycle, even across multiple subscribers.
func TestBuilderDedupesTopicCreation(t *testing.T) {
	bus := fakebus.New()
	builder := core.NewSubscriptionBuilder(bus, false)

	s1 := core.NewSubscriber("a", "proj", "shared-topic", "sub-a", noopHandlerPkg, nil)
	s2 := core.NewSubscriber("b", "proj", "shared-topic", "sub-b", noopHandlerPkg, nil)

	if err := builder.Build(context.Background(), s1); err != nil {
		t.Fatalf("build s1: %v", err)
	}
	if err := builder.Build(context.Background(), s2); err != nil {
		t.Fatalf("build s2: %v", err)
	}

	if len(bus.CreatedTopics) != 1 {
		t.Fatalf("expected exactly one topic creation, got %v", bus.CreatedTopics)
	}
	if len(bus.CreatedSubscriptions) != 2 {
		t.Fatalf("expected two subscription creations, got %v", bus.CreatedSubscriptions)
	}
}

func TestBuilderCreatesDeadLetterTopic(t *testing.T) {
	bus := fakebus.New()
	builder := core.NewSubscriptionBuilder(bus, false)

	s := core.NewSubscriber("a", "proj", "topic", "sub", noopHandlerPkg, nil)
	s.DeadLetter = &core.DeadLetterPolicy{TopicName: "topic-dlq", MaxDeliveryAttempts: 5}

	if err := builder.Build(context.Background(), s); err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(bus.CreatedTopics) != 2 {
		t.Fatalf("expected main + dlq topic creation, got %v", bus.CreatedTopics)
	}
}

func TestBuilderAutoupdateFailsWhenNotProvisioned(t *testing.T) {
	bus := fakebus.New()
	builder := core.NewSubscriptionBuilder(bus, false)

	s := core.NewSubscriber("a", "proj", "topic", "sub", noopHandlerPkg, nil)
	s.Lifecycle = core.LifecyclePolicy{Autoupdate: true}
	bus.UpdateErr = core.ErrSubscriptionNotProvisioned

	if err := builder.Build(context.Background(), s); err == nil {
		t.Fatal("expected SubscriptionNotProvisioned error")
	}
}

func noopHandlerPkg(ctx context.Context, msg core.Message) error { return nil }
