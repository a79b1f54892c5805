package core

import (
	"reflect"
	"runtime"
	"strings"
)

// Subscriber is a per-subscription record: a bound handler plus its
// policies and middleware list. It carries two distinct identifiers: Alias
// is the registration key, namespaced by the router chain's prefixes, and
// Name is derived from the handler's declared identifier and never changes
// during composition.
type Subscriber struct {
	Name             string
	Alias            string
	ProjectID        string
	TopicName        string
	SubscriptionName string

	Retry      MessageRetryPolicy
	Delivery   MessageDeliveryPolicy
	DeadLetter *DeadLetterPolicy
	Lifecycle  LifecyclePolicy
	Control    MessageControlFlowPolicy

	handler     Handler
	middlewares []Middleware
}

// NewSubscriber constructs a Subscriber with the given handler and
// policies, seeded with the declared (per-registration) middleware list.
// Policies start at their package-level defaults; Router.Subscriber applies
// any SubscriberOption overrides to the returned value afterwards.
func NewSubscriber(alias, projectID, topicName, subscriptionName string, handler Handler, declared []Middleware) *Subscriber {
	mws := make([]Middleware, len(declared))
	copy(mws, declared)
	return &Subscriber{
		Name:             handlerName(handler),
		Alias:            alias,
		ProjectID:        projectID,
		TopicName:        topicName,
		SubscriptionName: subscriptionName,
		Retry:            DefaultRetryPolicy(),
		Delivery:         DefaultDeliveryPolicy(),
		Lifecycle:        DefaultLifecyclePolicy(),
		Control:          DefaultControlFlowPolicy(),
		handler:          handler,
		middlewares:      mws,
	}
}

// handlerName resolves the handler function's declared identifier: the bare
// function name, without its package path or method-value suffix.
func handlerName(h Handler) string {
	if h == nil {
		return ""
	}
	full := runtime.FuncForPC(reflect.ValueOf(h).Pointer()).Name()
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(full, "."); i >= 0 {
		full = full[i+1:]
	}
	return full
}

// IncludeMiddleware appends m if it isn't already present.
func (s *Subscriber) IncludeMiddleware(m Middleware) {
	s.middlewares, _ = includeMiddleware(s.middlewares, m)
}

// Middlewares returns the subscriber's current middleware list. The slice
// is returned by value-semantics copy to keep callers from mutating the
// subscriber's internal state.
func (s *Subscriber) Middlewares() []Middleware {
	out := make([]Middleware, len(s.middlewares))
	copy(out, s.middlewares)
	return out
}

// BuildCallstack wraps the terminal handler command with every middleware,
// outermost-first, and returns the head of the chain.
func (s *Subscriber) BuildCallstack() MessageHandler {
	terminal := NewHandleMessageCommand(s.handler)
	return buildMessageChain(terminal, s.middlewares)
}
