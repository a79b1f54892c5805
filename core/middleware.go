package core

import "context"

// Handler is the user-supplied callback bound to a subscriber. Its return
// value drives the ack/nack discipline: nil acks, Drop acks, Retry nacks,
// anything else nacks and is logged.
type Handler func(ctx context.Context, msg Message) error

// MessageHandler is one link in the on-message callstack. The terminal link
// (built by NewHandleMessageCommand) invokes the user Handler; every other
// link delegates to the next one it wraps.
type MessageHandler func(ctx context.Context, msg Message) error

// PublishHandler is one link in the on-publish callstack. The terminal link
// (built by NewPublishMessageCommand) delegates to a BusClient.
type PublishHandler func(ctx context.Context, data []byte, orderingKey string, attrs map[string]string) error

// Middleware is the two-method contract every cross-cutting concern
// implements: OnMessage wraps the inbound chain, OnPublish wraps the
// outbound one. Implementations must be comparable (a pointer or a small
// value struct, never a bare func literal) — the router's duplicate
// detection compares middleware values with ==.
type Middleware interface {
	OnMessage(next MessageHandler) MessageHandler
	OnPublish(next PublishHandler) PublishHandler
}

// BaseMiddleware delegates both methods unchanged. Embed it to implement
// only the method you care about.
type BaseMiddleware struct{}

func (BaseMiddleware) OnMessage(next MessageHandler) MessageHandler { return next }
func (BaseMiddleware) OnPublish(next PublishHandler) PublishHandler { return next }

// NewHandleMessageCommand builds the terminal link of an on-message
// callstack: the command that actually invokes the bound handler.
func NewHandleMessageCommand(handler Handler) MessageHandler {
	return func(ctx context.Context, msg Message) error {
		return handler(ctx, msg)
	}
}

// NewPublishMessageCommand builds the terminal link of an on-publish
// callstack: the command that delegates to the bus client, optionally
// autocreating the topic first.
func NewPublishMessageCommand(bus BusClient, projectID, topicName string, autocreate bool) PublishHandler {
	return func(ctx context.Context, data []byte, orderingKey string, attrs map[string]string) error {
		if autocreate {
			if err := bus.CreateTopic(ctx, projectID, topicName, false); err != nil {
				return err
			}
		}
		return bus.Publish(ctx, projectID, topicName, data, orderingKey, attrs)
	}
}

// buildMessageChain wraps terminal with each middleware in reverse
// iteration order, so mws[0] is the outermost wrapper and executes first.
func buildMessageChain(terminal MessageHandler, mws []Middleware) MessageHandler {
	h := terminal
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i].OnMessage(h)
	}
	return h
}

// buildPublishChain mirrors buildMessageChain for the publish side.
func buildPublishChain(terminal PublishHandler, mws []Middleware) PublishHandler {
	h := terminal
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i].OnPublish(h)
	}
	return h
}

// includeMiddleware appends m to mws if not already present (identity/value
// equality), reporting whether it was added. Comparing interface values
// with == is safe as long as every Middleware implementation is comparable,
// which is the contract documented on the Middleware type.
func includeMiddleware(mws []Middleware, m Middleware) ([]Middleware, bool) {
	for _, existing := range mws {
		if existing == m {
			return mws, false
		}
	}
	return append(mws, m), true
}
