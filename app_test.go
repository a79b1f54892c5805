package fastpubsub_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fastpubsub/fastpubsub"
	"github.com/fastpubsub/fastpubsub/internal/fakebus"
)

func newTestApp(t *testing.T) *fastpubsub.App {
	t.Helper()
	t.Setenv("FASTPUBSUB_SUBSCRIBERS", "")

	bus := fakebus.New()
	router, err := fastpubsub.NewRouter(bus, "app")
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	handler := func(ctx context.Context, msg fastpubsub.Message) error { return nil }
	if err := router.Subscriber("events", "topic", "sub", handler, nil); err != nil {
		t.Fatalf("register subscriber: %v", err)
	}
	broker, err := fastpubsub.NewBroker("proj", router, bus, false, nil, nil)
	if err != nil {
		t.Fatalf("new broker: %v", err)
	}
	return fastpubsub.NewApp(broker)
}

func TestAppRunsHooksAroundLifecycle(t *testing.T) {
	app := newTestApp(t)

	var order []string
	record := func(name string) fastpubsub.HookFunc {
		return func(ctx context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	app.OnStartup(record("on_startup")).
		AfterStartup(record("after_startup")).
		OnShutdown(record("on_shutdown")).
		AfterShutdown(record("after_shutdown"))

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	want := []string{"on_startup", "after_startup", "on_shutdown", "after_shutdown"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestAppStartupHookErrorAbortsStart(t *testing.T) {
	app := newTestApp(t)

	boom := errors.New("hook failed")
	app.OnStartup(func(ctx context.Context) error { return boom })

	if err := app.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
	if app.Broker().Alive() {
		t.Fatal("broker must not start when an on-startup hook fails")
	}
}
