package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/internal/fakebus"
)

func newTestSubscriber(bus core.BusClient, handler core.Handler) *core.Subscriber {
	sub := core.NewSubscriber("sub", "proj", "topic", "sub-name", handler, nil)
	sub.Control = core.MessageControlFlowPolicy{MaxMessages: 10}
	return sub
}

func TestPollTaskAcksOnSuccess(t *testing.T) {
	bus := fakebus.New()
	bus.Enqueue("sub-name", core.ReceivedMessage{MessageID: "m1", AckID: "T-1", Data: []byte("x")})

	sub := newTestSubscriber(bus, func(ctx context.Context, msg core.Message) error { return nil })
	task := core.NewPollTask(sub, bus, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- task.Run(ctx) }()

	waitForCondition(t, func() bool { return bus.AckedCount() > 0 })
	cancel()
	<-done

	if len(bus.Nacked) != 0 {
		t.Fatalf("expected no nacks, got %v", bus.Nacked)
	}
}

func TestPollTaskNacksOnHandlerError(t *testing.T) {
	bus := fakebus.New()
	bus.Enqueue("sub-name", core.ReceivedMessage{MessageID: "m1", AckID: "T-1", Data: []byte("x")})

	sub := newTestSubscriber(bus, func(ctx context.Context, msg core.Message) error {
		return errors.New("boom")
	})
	task := core.NewPollTask(sub, bus, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- task.Run(ctx) }()

	waitForCondition(t, func() bool { return bus.NackedCount() > 0 })
	cancel()
	<-done

	if len(bus.Acked) != 0 {
		t.Fatalf("expected no acks, got %v", bus.Acked)
	}
}

func TestPollTaskFatalClassificationStopsTask(t *testing.T) {
	bus := fakebus.New()
	bus.NextErr = errors.New("permission denied")

	sub := newTestSubscriber(bus, func(ctx context.Context, msg core.Message) error { return nil })
	classify := func(err error) core.ErrorClass { return core.ClassFatal }
	task := core.NewPollTask(sub, bus, classify, nil)

	err := task.Run(context.Background())
	if err == nil {
		t.Fatal("expected Run to return the fatal error")
	}
	if task.Alive() {
		t.Fatal("expected task to stop running after a fatal error")
	}
	if task.Ready() {
		t.Fatal("expected task to be unready after a fatal error")
	}
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
