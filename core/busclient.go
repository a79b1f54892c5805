package core

import "context"

// BusClient is the abstract interface to the publish/subscribe bus. The
// core depends only on this contract; gcppubsub provides the real Google
// Cloud Pub/Sub-backed implementation, internal/fakebus a test double.
type BusClient interface {
	CreateTopic(ctx context.Context, projectID, topicName string, createDefaultSubscription bool) error
	CreateSubscription(ctx context.Context, projectID, topicName, subscriptionName string, retry MessageRetryPolicy, delivery MessageDeliveryPolicy, dlq *DeadLetterPolicy) error
	UpdateSubscription(ctx context.Context, projectID, subscriptionName string, retry MessageRetryPolicy, delivery MessageDeliveryPolicy, dlq *DeadLetterPolicy) error
	Pull(ctx context.Context, projectID, subscriptionName string, maxMessages int) ([]ReceivedMessage, error)
	Ack(ctx context.Context, projectID, subscriptionName string, ackTokens []string) error
	Nack(ctx context.Context, projectID, subscriptionName string, ackTokens []string) error
	Publish(ctx context.Context, projectID, topicName string, data []byte, orderingKey string, attributes map[string]string) error
}

// ErrorClass is the outcome of classifying an error raised by a BusClient
// call inside the poll loop.
type ErrorClass int

const (
	// ClassRetryable errors leave the poll task running but mark it
	// not-ready; the next pull attempt may succeed.
	ClassRetryable ErrorClass = iota
	// ClassFatal errors stop the poll task entirely.
	ClassFatal
)
