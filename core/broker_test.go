package core_test

import (
	"context"
	"testing"

	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/internal/fakebus"
)

// An allow-list starts only the named subscribers; unknown aliases are
// warned about and skipped.
func TestBrokerSelectiveStartup(t *testing.T) {
	bus := fakebus.New()
	root, err := core.NewRouter(bus, "core")
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	if err := root.Subscriber("data.ingest", "t1", "s1", noopHandlerPkg, nil); err != nil {
		t.Fatalf("register ingest: %v", err)
	}
	if err := root.Subscriber("other", "t2", "s2", noopHandlerPkg, nil); err != nil {
		t.Fatalf("register other: %v", err)
	}

	broker, err := core.NewBroker("proj", root, bus, false, nil, nil)
	if err != nil {
		t.Fatalf("new broker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := broker.Start(ctx, []string{"core.data.ingest", "core.unknown"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer broker.Shutdown()

	waitForCondition(t, broker.Alive)
}

func TestBrokerFailsWithNoSubscribersSelected(t *testing.T) {
	bus := fakebus.New()
	root, _ := core.NewRouter(bus, "")
	if err := root.Subscriber("foo", "t", "s", noopHandlerPkg, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	broker, err := core.NewBroker("proj", root, bus, false, nil, nil)
	if err != nil {
		t.Fatalf("new broker: %v", err)
	}

	err = broker.Start(context.Background(), []string{"nonexistent"})
	if err == nil {
		t.Fatal("expected NoSubscribersSelected error")
	}
}

func TestNewBrokerRejectsEmptyProjectID(t *testing.T) {
	bus := fakebus.New()
	root, _ := core.NewRouter(bus, "")
	if _, err := core.NewBroker("  ", root, bus, false, nil, nil); err == nil {
		t.Fatal("expected InvalidProjectID error")
	}
}
