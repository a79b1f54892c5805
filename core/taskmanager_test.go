package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/internal/fakebus"
)

func healthyHandler(ctx context.Context, msg core.Message) error { return nil }
func doomedHandler(ctx context.Context, msg core.Message) error  { return nil }

// A fatal bus error terminates the affected poll task only; siblings keep
// pulling and the aggregated liveness map, keyed by subscriber name,
// reflects both states.
func TestFatalErrorDoesNotAffectSiblingTasks(t *testing.T) {
	bus := fakebus.New()
	bus.SetPullErr("bad-sub", errors.New("permission denied"))

	good := core.NewSubscriber("good", "proj", "t", "good-sub", healthyHandler, nil)
	bad := core.NewSubscriber("bad", "proj", "t", "bad-sub", doomedHandler, nil)

	classify := func(err error) core.ErrorClass { return core.ClassFatal }

	m := core.NewTaskManager()
	m.CreateTask(core.NewPollTask(good, bus, classify, nil))
	m.CreateTask(core.NewPollTask(bad, bus, classify, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Shutdown()

	waitForCondition(t, func() bool {
		alive := m.Alive()
		ready := m.Ready()
		return !alive["doomedHandler"] && alive["healthyHandler"] && ready["healthyHandler"]
	})

	if m.Ready()["doomedHandler"] {
		t.Fatal("expected failed task to be unready")
	}
}
