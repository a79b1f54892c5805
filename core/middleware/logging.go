package middleware

import (
	"context"

	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/internal/obslog"
)

// Logging logs every inbound message and outbound publish at debug level,
// and the outcome at warn when it fails. Component names the zerolog child
// logger; Logging values are comparable (a plain string field) so router
// dedupe can use ==.
type Logging struct {
	Component string
}

func (m Logging) OnMessage(next core.MessageHandler) core.MessageHandler {
	log := obslog.Component(componentOrDefault(m.Component))
	return func(ctx context.Context, msg core.Message) error {
		log.Debug().Str("message_id", msg.ID).Str("topic", msg.Topic).Msg("handling message")
		err := next(ctx, msg)
		if err != nil {
			log.Warn().Err(err).Str("message_id", msg.ID).Msg("handler returned error")
		}
		return err
	}
}

func (m Logging) OnPublish(next core.PublishHandler) core.PublishHandler {
	log := obslog.Component(componentOrDefault(m.Component))
	return func(ctx context.Context, data []byte, orderingKey string, attrs map[string]string) error {
		log.Debug().Int("bytes", len(data)).Str("ordering_key", orderingKey).Msg("publishing message")
		err := next(ctx, data, orderingKey, attrs)
		if err != nil {
			log.Warn().Err(err).Msg("publish failed")
		}
		return err
	}
}

func componentOrDefault(name string) string {
	if name == "" {
		return "middleware"
	}
	return name
}
