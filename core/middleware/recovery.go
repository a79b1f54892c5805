package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/internal/obslog"
)

// Recovery turns a panicking handler into a returned error instead of
// taking down the poll task's goroutine. The message is nacked like any
// other handler failure.
type Recovery struct{}

func (Recovery) OnMessage(next core.MessageHandler) core.MessageHandler {
	return func(ctx context.Context, msg core.Message) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger := obslog.Component("recovery")
				logger.Error().
					Str("message_id", msg.ID).
					Bytes("stack", debug.Stack()).
					Msg("recovered panic in handler")
				err = fmt.Errorf("fastpubsub: recovered panic: %v", r)
			}
		}()
		return next(ctx, msg)
	}
}

func (Recovery) OnPublish(next core.PublishHandler) core.PublishHandler {
	return func(ctx context.Context, data []byte, orderingKey string, attrs map[string]string) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger := obslog.Component("recovery")
				logger.Error().
					Bytes("stack", debug.Stack()).
					Msg("recovered panic in publish chain")
				err = fmt.Errorf("fastpubsub: recovered panic: %v", r)
			}
		}()
		return next(ctx, data, orderingKey, attrs)
	}
}
