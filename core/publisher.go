package core

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher is a per-topic handle. It serializes a payload, composes the
// publish callstack and delegates to a BusClient. Publishers are memoized
// per topic within a Router: one instance per (router, topic name) pair.
type Publisher struct {
	ProjectID   string
	TopicName   string
	middlewares []Middleware
	bus         BusClient
}

// NewPublisher constructs a Publisher seeded with the owning router's
// current middleware list, copied so later router mutations don't alias
// this publisher's slice.
func NewPublisher(bus BusClient, projectID, topicName string, seed []Middleware) *Publisher {
	mws := make([]Middleware, len(seed))
	copy(mws, seed)
	return &Publisher{ProjectID: projectID, TopicName: topicName, middlewares: mws, bus: bus}
}

// IncludeMiddleware appends m if it isn't already present.
func (p *Publisher) IncludeMiddleware(m Middleware) {
	p.middlewares, _ = includeMiddleware(p.middlewares, m)
}

// Publish serializes data, builds the publish callstack and invokes it.
// Serialization tries, in order: passthrough bytes, UTF-8 string encoding,
// compact JSON for maps, canonical JSON for any other marshalable value.
func (p *Publisher) Publish(ctx context.Context, data any, orderingKey string, attributes map[string]string, autocreate bool) error {
	payload, err := serialize(data)
	if err != nil {
		return err
	}

	terminal := NewPublishMessageCommand(p.bus, p.ProjectID, p.TopicName, autocreate)
	chain := buildPublishChain(terminal, p.middlewares)
	return chain(ctx, payload, orderingKey, attributes)
}

func serialize(data any) ([]byte, error) {
	switch v := data.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case map[string]any:
		return json.Marshal(v)
	case nil:
		return nil, fmt.Errorf("%w: nil payload", ErrUnserializablePayload)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnserializablePayload, err)
		}
		return b, nil
	}
}
