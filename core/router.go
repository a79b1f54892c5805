package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9_./]*[A-Za-z0-9])?$`)

// Router is a hierarchical, prefixed container for subscribers,
// publishers, middlewares, and nested routers. It is the composition
// engine: prefix propagation, middleware inheritance, project-identity
// propagation, alias uniqueness.
type Router struct {
	mu sync.Mutex

	prefix    string
	projectID string
	bus       BusClient

	children    []*Router
	publishers  map[string]*Publisher  // topic name -> Publisher
	subscribers map[string]*Subscriber // lowercased prefixed alias -> Subscriber
	middlewares []Middleware
}

// NewRouter constructs a router bound to bus with the given prefix. An
// empty prefix is always valid; a non-empty one must match the alias
// character set the bus subscription names allow.
func NewRouter(bus BusClient, prefix string) (*Router, error) {
	if prefix != "" && !prefixPattern.MatchString(prefix) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return &Router{
		bus:         bus,
		prefix:      prefix,
		publishers:  make(map[string]*Publisher),
		subscribers: make(map[string]*Subscriber),
	}, nil
}

// SubscriberOption customizes a subscriber's policies or middleware at
// registration time.
type SubscriberOption func(*Subscriber)

func WithRetryPolicy(p MessageRetryPolicy) SubscriberOption {
	return func(s *Subscriber) { s.Retry = p }
}

func WithDeliveryPolicy(p MessageDeliveryPolicy) SubscriberOption {
	return func(s *Subscriber) { s.Delivery = p }
}

func WithDeadLetterPolicy(p DeadLetterPolicy) SubscriberOption {
	return func(s *Subscriber) { s.DeadLetter = &p }
}

func WithLifecyclePolicy(p LifecyclePolicy) SubscriberOption {
	return func(s *Subscriber) { s.Lifecycle = p }
}

func WithControlFlowPolicy(p MessageControlFlowPolicy) SubscriberOption {
	return func(s *Subscriber) { s.Control = p }
}

// Subscriber registers handler under alias, bound to topicName and
// subscriptionName. The alias and subscriptionName are prefixed by the
// router's current prefix; topicName is used as given. mws is the
// subscriber's own declared middleware list; the router's middlewares are
// appended after it, so execution order is declared-first (outermost),
// router-middleware-last (closest to the handler).
func (r *Router) Subscriber(alias, topicName, subscriptionName string, handler Handler, mws []Middleware, opts ...SubscriberOption) error {
	if handler == nil {
		return fmt.Errorf("%w: handler must not be nil", ErrInvalidMiddleware)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prefixedAlias := joinPrefix(r.prefix, alias)
	key := strings.ToLower(prefixedAlias)
	if _, exists := r.subscribers[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAlias, prefixedAlias)
	}

	declared := append(append([]Middleware{}, mws...), r.middlewares...)
	sub := NewSubscriber(prefixedAlias, r.projectID, topicName, joinPrefix(r.prefix, subscriptionName), handler, declared)
	for _, opt := range opts {
		opt(sub)
	}
	if err := sub.Retry.Validate(); err != nil {
		return err
	}
	r.subscribers[key] = sub
	return nil
}

// Publisher returns the memoized Publisher for topicName, creating and
// seeding one with the router's current middlewares if this is the first
// request for that topic.
func (r *Router) Publisher(topicName string) *Publisher {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.publishers[topicName]; ok {
		return p
	}
	p := NewPublisher(r.bus, r.projectID, topicName, r.middlewares)
	r.publishers[topicName] = p
	return p
}

// Publish resolves the publisher for topicName and delegates to it.
func (r *Router) Publish(ctx context.Context, topicName string, data any, orderingKey string, attributes map[string]string, autocreate bool) error {
	p := r.Publisher(topicName)
	return p.Publish(ctx, data, orderingKey, attributes, autocreate)
}

// IncludeRouter grafts child into the tree beneath r: prefixes, project id
// and middlewares all cascade down into child and its own descendants.
func (r *Router) IncludeRouter(child *Router) error {
	if child == r {
		return fmt.Errorf("%w: router cannot include itself", ErrInvalidRouter)
	}
	if r.hasDescendant(child) {
		return fmt.Errorf("%w: router is already included", ErrInvalidRouter)
	}
	if child.hasDescendant(r) {
		return fmt.Errorf("%w: including child would create a cycle", ErrInvalidRouter)
	}

	r.mu.Lock()
	for _, sibling := range r.children {
		if sibling.prefix == child.prefix {
			r.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicatePrefix, child.prefix)
		}
	}
	parentPrefix := r.prefix
	parentProjectID := r.projectID
	parentMiddlewares := append([]Middleware{}, r.middlewares...)
	r.children = append(r.children, child)
	r.mu.Unlock()

	child.addPrefix(parentPrefix)
	if parentProjectID != "" {
		child.propagateProjectID(parentProjectID)
	}
	for _, m := range parentMiddlewares {
		_ = child.IncludeMiddleware(m)
	}
	return nil
}

// hasDescendant reports whether target appears anywhere in r's subtree
// (including r itself).
func (r *Router) hasDescendant(target *Router) bool {
	if r == target {
		return true
	}
	r.mu.Lock()
	children := append([]*Router{}, r.children...)
	r.mu.Unlock()
	for _, c := range children {
		if c.hasDescendant(target) {
			return true
		}
	}
	return false
}

// addPrefix prepends parentPrefix to r.prefix (deduplicating a repeated
// leading segment so re-parenting never double-prefixes), re-keys every
// owned subscriber by its newly prefixed alias, renames their subscription
// names, and cascades into child routers.
func (r *Router) addPrefix(parentPrefix string) {
	if parentPrefix == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prefix == parentPrefix || strings.HasPrefix(r.prefix, parentPrefix+".") {
		// Already carries this prefix (or a longer one derived from it);
		// prevents double-prefixing when composition operations overlap.
		return
	}
	r.prefix = joinPrefix(parentPrefix, r.prefix)

	newSubs := make(map[string]*Subscriber, len(r.subscribers))
	for _, sub := range r.subscribers {
		sub.Alias = joinPrefix(parentPrefix, sub.Alias)
		sub.SubscriptionName = joinPrefix(parentPrefix, sub.SubscriptionName)
		newSubs[strings.ToLower(sub.Alias)] = sub
	}
	r.subscribers = newSubs

	children := append([]*Router{}, r.children...)
	for _, c := range children {
		c.addPrefix(parentPrefix)
	}
}

// IncludeMiddleware appends m to r.middlewares if absent, and recurses into
// every owned publisher, subscriber, and child router. Idempotent.
func (r *Router) IncludeMiddleware(m Middleware) error {
	r.mu.Lock()
	added := false
	r.middlewares, added = includeMiddleware(r.middlewares, m)
	publishers := make([]*Publisher, 0, len(r.publishers))
	for _, p := range r.publishers {
		publishers = append(publishers, p)
	}
	subscribers := make([]*Subscriber, 0, len(r.subscribers))
	for _, s := range r.subscribers {
		subscribers = append(subscribers, s)
	}
	children := append([]*Router{}, r.children...)
	r.mu.Unlock()

	if !added {
		return nil
	}
	for _, p := range publishers {
		p.IncludeMiddleware(m)
	}
	for _, s := range subscribers {
		s.IncludeMiddleware(m)
	}
	for _, c := range children {
		if err := c.IncludeMiddleware(m); err != nil {
			return err
		}
	}
	return nil
}

// propagateProjectID sets r.projectID and descends into children (prefixing
// each child with r.prefix first), and into every owned publisher and
// subscriber.
func (r *Router) propagateProjectID(pid string) {
	r.mu.Lock()
	r.projectID = pid
	for _, p := range r.publishers {
		p.ProjectID = pid
	}
	for _, s := range r.subscribers {
		s.ProjectID = pid
	}
	children := append([]*Router{}, r.children...)
	prefix := r.prefix
	r.mu.Unlock()

	for _, c := range children {
		c.addPrefix(prefix)
		c.propagateProjectID(pid)
	}
}

// Subscribers returns the depth-first union of r's own subscribers and
// every descendant's, keyed by prefixed alias.
func (r *Router) Subscribers() map[string]*Subscriber {
	out := make(map[string]*Subscriber)
	r.collectSubscribers(out)
	return out
}

func (r *Router) collectSubscribers(out map[string]*Subscriber) {
	r.mu.Lock()
	for k, s := range r.subscribers {
		out[k] = s
	}
	children := append([]*Router{}, r.children...)
	r.mu.Unlock()

	for _, c := range children {
		c.collectSubscribers(out)
	}
}

// Prefix returns the router's current prefix.
func (r *Router) Prefix() string { return r.prefix }

// ProjectID returns the router's current project id.
func (r *Router) ProjectID() string { return r.projectID }

// joinPrefix prepends parent to child, joined by ".", skipping empty
// segments and avoiding a duplicated leading segment.
func joinPrefix(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	if child == parent || strings.HasPrefix(child, parent+".") {
		return child
	}
	return parent + "." + child
}
