// Package obs provides the application-performance-monitoring contract the
// poll loop calls into: starting a background transaction per message,
// binding any distributed trace context the message carried, and reading
// back the active trace/span ids for logging. A default, OpenTelemetry-
// backed Provider is supplied; when no SDK tracer provider has been
// registered, OTel's own no-op implementation satisfies the contract
// without any extra code.
package obs

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Provider is the narrow APM contract the core depends on.
type Provider interface {
	// BackgroundTransaction starts a root span named name and returns a
	// derived context plus a function that ends it.
	BackgroundTransaction(ctx context.Context, name string) (context.Context, func())
	// BindDistributedTraceContext extracts a trace context carried in a
	// message's attributes and returns a context that continues it.
	BindDistributedTraceContext(ctx context.Context, attrs map[string]string) context.Context
	// TraceID returns the active trace id, or "" if none.
	TraceID(ctx context.Context) string
	// SpanID returns the active span id, or "" if none.
	SpanID(ctx context.Context) string
}

// OTelProvider implements Provider on top of go.opentelemetry.io/otel.
type OTelProvider struct {
	tracer trace.Tracer
}

// NewOTelProvider builds a Provider using the globally registered tracer
// provider (otel.GetTracerProvider()), which defaults to a no-op
// implementation until an SDK provider is installed by the application
// shell.
func NewOTelProvider(instrumentationName string) *OTelProvider {
	return &OTelProvider{tracer: otel.Tracer(instrumentationName)}
}

func (p *OTelProvider) BackgroundTransaction(ctx context.Context, name string) (context.Context, func()) {
	spanCtx, span := p.tracer.Start(ctx, name)
	return spanCtx, func() { span.End() }
}

func (p *OTelProvider) BindDistributedTraceContext(ctx context.Context, attrs map[string]string) context.Context {
	carrier := propagation.MapCarrier{}
	for k, v := range attrs {
		carrier.Set(k, v)
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

func (p *OTelProvider) TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func (p *OTelProvider) SpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}
