// Package fastpubsub provides the top-level API for the consumption
// framework. It re-exports core types for convenience, so applications can
// write:
//
//	router, _ := fastpubsub.NewRouter(bus, "orders")
//	router.Subscriber("created", "orders.created", "orders-created-sub", handleOrder, nil)
//	broker, _ := fastpubsub.NewBroker("my-project", router, bus, false, nil, nil)
//	broker.Start(ctx, nil)
package fastpubsub

import (
	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/obs"
)

// Re-export core types at the package level for ergonomic usage.
type (
	Message                  = core.Message
	ReceivedMessage          = core.ReceivedMessage
	Handler                  = core.Handler
	Middleware               = core.Middleware
	BaseMiddleware           = core.BaseMiddleware
	BusClient                = core.BusClient
	Router                   = core.Router
	Subscriber               = core.Subscriber
	Publisher                = core.Publisher
	Broker                   = core.Broker
	SubscriptionBuilder      = core.SubscriptionBuilder
	TaskManager              = core.TaskManager
	PollTask                 = core.PollTask
	ErrorClass               = core.ErrorClass
	ErrorClassifier          = core.ErrorClassifier
	MessageRetryPolicy       = core.MessageRetryPolicy
	MessageDeliveryPolicy    = core.MessageDeliveryPolicy
	DeadLetterPolicy         = core.DeadLetterPolicy
	LifecyclePolicy          = core.LifecyclePolicy
	MessageControlFlowPolicy = core.MessageControlFlowPolicy
)

// Re-export sentinel errors and control-flow signals.
var (
	Drop  = core.Drop
	Retry = core.Retry

	ErrInvalidProjectID           = core.ErrInvalidProjectID
	ErrInvalidPrefix              = core.ErrInvalidPrefix
	ErrInvalidRouter              = core.ErrInvalidRouter
	ErrDuplicatePrefix            = core.ErrDuplicatePrefix
	ErrDuplicateAlias             = core.ErrDuplicateAlias
	ErrInvalidMiddleware          = core.ErrInvalidMiddleware
	ErrUnserializablePayload      = core.ErrUnserializablePayload
	ErrNoSubscribersSelected      = core.ErrNoSubscribersSelected
	ErrSubscriptionNotProvisioned = core.ErrSubscriptionNotProvisioned
)

const (
	ClassRetryable = core.ClassRetryable
	ClassFatal     = core.ClassFatal
)

// NewRouter constructs a router bound to bus with the given prefix.
func NewRouter(bus BusClient, prefix string) (*Router, error) {
	return core.NewRouter(bus, prefix)
}

// NewBroker validates projectID and constructs a Broker wired to root and
// bus.
func NewBroker(projectID string, root *Router, bus BusClient, emulator bool, classifier ErrorClassifier, apm obs.Provider) (*Broker, error) {
	return core.NewBroker(projectID, root, bus, emulator, classifier, apm)
}
