package middleware

import (
	"context"

	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/internal/metrics"
)

// Metrics records every handled message and publish attempt against the
// prometheus collectors in internal/metrics. Subscriber names the label
// used for the message counter.
type Metrics struct {
	Subscriber string
}

func (m Metrics) OnMessage(next core.MessageHandler) core.MessageHandler {
	return func(ctx context.Context, msg core.Message) error {
		err := next(ctx, msg)
		outcome := "ack"
		if err != nil && !core.IsDrop(err) {
			outcome = "nack"
		}
		metrics.RecordMessage(m.subscriberOrMessage(msg), outcome)
		return err
	}
}

func (m Metrics) OnPublish(next core.PublishHandler) core.PublishHandler {
	return func(ctx context.Context, data []byte, orderingKey string, attrs map[string]string) error {
		err := next(ctx, data, orderingKey, attrs)
		outcome := "published"
		if err != nil {
			outcome = "publish_failed"
		}
		metrics.RecordMessage(m.subscriberOrDefault(), outcome)
		return err
	}
}

func (m Metrics) subscriberOrMessage(msg core.Message) string {
	if m.Subscriber != "" {
		return m.Subscriber
	}
	return msg.Subscription
}

func (m Metrics) subscriberOrDefault() string {
	if m.Subscriber != "" {
		return m.Subscriber
	}
	return "publisher"
}
