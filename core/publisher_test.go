package core_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/internal/fakebus"
)

// Round-trip law: publish(m) followed by decode(payload) yields m back for
// any JSON-compatible mapping.
func TestPublisherSerializesMaps(t *testing.T) {
	bus := fakebus.New()
	p := core.NewPublisher(bus, "proj", "topic", nil)

	payload := map[string]any{"id": float64(1), "name": "order"}
	if err := p.Publish(context.Background(), payload, "", nil, false); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(bus.Published) != 1 {
		t.Fatalf("expected one published message, got %d", len(bus.Published))
	}

	var decoded map[string]any
	if err := json.Unmarshal(bus.Published[0].Data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["id"] != payload["id"] || decoded["name"] != payload["name"] {
		t.Fatalf("got %v, want %v", decoded, payload)
	}
}

func TestPublisherPassesThroughBytesAndStrings(t *testing.T) {
	bus := fakebus.New()
	p := core.NewPublisher(bus, "proj", "topic", nil)

	if err := p.Publish(context.Background(), []byte("raw"), "", nil, false); err != nil {
		t.Fatalf("publish bytes: %v", err)
	}
	if err := p.Publish(context.Background(), "text", "", nil, false); err != nil {
		t.Fatalf("publish string: %v", err)
	}

	if string(bus.Published[0].Data) != "raw" {
		t.Fatalf("got %q, want raw", bus.Published[0].Data)
	}
	if string(bus.Published[1].Data) != "text" {
		t.Fatalf("got %q, want text", bus.Published[1].Data)
	}
}

func TestPublisherRejectsNilPayload(t *testing.T) {
	bus := fakebus.New()
	p := core.NewPublisher(bus, "proj", "topic", nil)

	if err := p.Publish(context.Background(), nil, "", nil, false); err == nil {
		t.Fatal("expected UnserializablePayload for nil data")
	}
}

func TestPublisherAutocreateTopic(t *testing.T) {
	bus := fakebus.New()
	p := core.NewPublisher(bus, "proj", "topic", nil)

	if err := p.Publish(context.Background(), "hi", "", nil, true); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(bus.CreatedTopics) != 1 {
		t.Fatalf("expected topic autocreate, got %v", bus.CreatedTopics)
	}
}
