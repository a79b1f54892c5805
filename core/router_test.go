package core

import (
	"context"
	"testing"
)

type recordingMiddleware struct {
	name string
	log  *[]string
}

func (m recordingMiddleware) OnMessage(next MessageHandler) MessageHandler {
	return func(ctx context.Context, msg Message) error {
		*m.log = append(*m.log, m.name+":before")
		err := next(ctx, msg)
		*m.log = append(*m.log, m.name+":after")
		return err
	}
}

func (m recordingMiddleware) OnPublish(next PublishHandler) PublishHandler {
	return next
}

func noopHandler(ctx context.Context, msg Message) error { return nil }

func TestRouterPrefixPropagation(t *testing.T) {
	child, err := NewRouter(nil, "data")
	if err != nil {
		t.Fatalf("new child router: %v", err)
	}
	parent, err := NewRouter(nil, "core")
	if err != nil {
		t.Fatalf("new parent router: %v", err)
	}

	if err := child.Subscriber("ingest", "topic", "stream", noopHandler, nil); err != nil {
		t.Fatalf("register subscriber: %v", err)
	}
	if err := parent.IncludeRouter(child); err != nil {
		t.Fatalf("include router: %v", err)
	}

	subs := parent.Subscribers()
	sub, ok := subs["core.data.ingest"]
	if !ok {
		t.Fatalf("expected alias core.data.ingest, got keys %v", keysOf(subs))
	}
	if sub.SubscriptionName != "core.data.stream" {
		t.Fatalf("expected subscription name core.data.stream, got %q", sub.SubscriptionName)
	}
	if sub.Alias != "core.data.ingest" {
		t.Fatalf("expected alias core.data.ingest, got %q", sub.Alias)
	}
	if sub.Name != "noopHandler" {
		t.Fatalf("expected handler-derived name noopHandler, got %q", sub.Name)
	}
}

func keysOf(m map[string]*Subscriber) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Execution order on a message is: the subscriber's own middlewares first,
// then its router's, then each ancestor's up to the root.
func TestMiddlewareOrder(t *testing.T) {
	var log []string
	b := recordingMiddleware{name: "B", log: &log}
	p := recordingMiddleware{name: "P", log: &log}
	c := recordingMiddleware{name: "C", log: &log}
	u := recordingMiddleware{name: "U", log: &log}

	child, _ := NewRouter(nil, "child")
	parent, _ := NewRouter(nil, "parent")
	broker, _ := NewRouter(nil, "")

	if err := child.Subscriber("sub", "topic", "sub", func(ctx context.Context, msg Message) error {
		log = append(log, "handler")
		return nil
	}, []Middleware{u}); err != nil {
		t.Fatalf("register subscriber: %v", err)
	}
	if err := child.IncludeMiddleware(c); err != nil {
		t.Fatalf("include C: %v", err)
	}
	if err := parent.IncludeRouter(child); err != nil {
		t.Fatalf("include child: %v", err)
	}
	if err := parent.IncludeMiddleware(p); err != nil {
		t.Fatalf("include P: %v", err)
	}
	if err := broker.IncludeRouter(parent); err != nil {
		t.Fatalf("include parent: %v", err)
	}
	if err := broker.IncludeMiddleware(b); err != nil {
		t.Fatalf("include B: %v", err)
	}

	subs := broker.Subscribers()
	var sub *Subscriber
	for _, s := range subs {
		sub = s
	}
	if sub == nil {
		t.Fatal("expected one subscriber")
	}

	chain := sub.BuildCallstack()
	if err := chain(context.Background(), Message{}); err != nil {
		t.Fatalf("chain returned error: %v", err)
	}

	want := []string{"U:before", "C:before", "P:before", "B:before", "handler", "B:after", "P:after", "C:after", "U:after"}
	if len(log) != len(want) {
		t.Fatalf("got %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("got %v, want %v", log, want)
		}
	}
}

func TestDuplicateAlias(t *testing.T) {
	r, _ := NewRouter(nil, "")
	if err := r.Subscriber("foo", "t", "s", noopHandler, nil); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := r.Subscriber("foo", "t2", "s2", noopHandler, nil); err == nil {
		t.Fatal("expected DuplicateAlias error")
	}
}

func TestDuplicateAliasAcrossParentChildAllowed(t *testing.T) {
	parent, _ := NewRouter(nil, "")
	child, _ := NewRouter(nil, "child")

	if err := parent.Subscriber("foo", "t", "s", noopHandler, nil); err != nil {
		t.Fatalf("parent registration: %v", err)
	}
	if err := child.Subscriber("foo", "t", "s", noopHandler, nil); err != nil {
		t.Fatalf("child registration: %v", err)
	}
	if err := parent.IncludeRouter(child); err != nil {
		t.Fatalf("include router: %v", err)
	}

	subs := parent.Subscribers()
	if len(subs) != 2 {
		t.Fatalf("expected 2 distinct subscribers, got %d: %v", len(subs), keysOf(subs))
	}
}

func TestIncludeRouterRejectsSelf(t *testing.T) {
	r, _ := NewRouter(nil, "")
	if err := r.IncludeRouter(r); err == nil {
		t.Fatal("expected error including router into itself")
	}
}

func TestIncludeRouterRejectsDuplicatePrefix(t *testing.T) {
	parent, _ := NewRouter(nil, "")
	a, _ := NewRouter(nil, "x")
	b, _ := NewRouter(nil, "x")

	if err := parent.IncludeRouter(a); err != nil {
		t.Fatalf("include a: %v", err)
	}
	if err := parent.IncludeRouter(b); err == nil {
		t.Fatal("expected duplicate prefix error")
	}
}
