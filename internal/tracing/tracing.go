package tracing

import (
	"context"
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"

	"vodhub/internal/config"
)

// Init sets up the Jaeger tracer and installs it globally. The returned
// closer flushes buffered spans on shutdown.
func Init(cfg config.TracingConfig) (opentracing.Tracer, io.Closer, error) {
	jcfg := &jaegercfg.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:          false,
			CollectorEndpoint: cfg.JaegerEndpoint,
		},
	}

	tracer, closer, err := jcfg.NewTracer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}

// StartSpan starts a span as a child of whatever span is carried in ctx.
func StartSpan(ctx context.Context, operationName string) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, operationName)
}

// FinishWithError finishes the span, tagging it with the error if any.
func FinishWithError(span opentracing.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.SetTag("error", true)
		span.LogKV("error", err.Error())
	}
	span.Finish()
}
