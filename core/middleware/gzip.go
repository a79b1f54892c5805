// Package middleware provides the stock Middleware implementations:
// GZip, Logging, Recovery, and a Prometheus-backed Metrics collector.
package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"

	"github.com/fastpubsub/fastpubsub/core"
)

// contentEncodingAttr is the message attribute GZip sets on publish and
// inspects on receipt.
const contentEncodingAttr = "Content-Encoding"

// GZip compresses outbound payloads and transparently decompresses inbound
// ones carrying Content-Encoding: gzip.
type GZip struct{}

func (GZip) OnMessage(next core.MessageHandler) core.MessageHandler {
	return func(ctx context.Context, msg core.Message) error {
		if msg.Attributes[contentEncodingAttr] == "gzip" {
			decoded, err := decompress(msg.Payload)
			if err != nil {
				return fmt.Errorf("gzip: decompress: %w", err)
			}
			msg = msg.WithPayload(decoded)
		}
		return next(ctx, msg)
	}
}

func (GZip) OnPublish(next core.PublishHandler) core.PublishHandler {
	return func(ctx context.Context, data []byte, orderingKey string, attrs map[string]string) error {
		compressed, err := compress(data)
		if err != nil {
			return fmt.Errorf("gzip: compress: %w", err)
		}

		out := make(map[string]string, len(attrs)+1)
		for k, v := range attrs {
			out[k] = v
		}
		out[contentEncodingAttr] = "gzip"

		return next(ctx, compressed, orderingKey, out)
	}
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
