// Package otel exports compiler events as OpenTelemetry traces: one span per
// compilation pass with a child span per refetchable fragment.
package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/refetchgen/internal/eventbus"
	events "github.com/hanpama/refetchgen/internal/events"
	runid "github.com/hanpama/refetchgen/internal/runid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "refetchgen"

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := newSubscriber(otel.Tracer(tracerName)).register()
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

type subscriber struct {
	tracer        trace.Tracer
	compileSpans  sync.Map // compile run ID -> trace.Span
	fragmentSpans sync.Map // fragment run ID -> trace.Span
}

func newSubscriber(tracer trace.Tracer) *subscriber {
	return &subscriber{tracer: tracer}
}

func (s *subscriber) register() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(s.compileStart),
		eventbus.Subscribe(s.compileFinish),
		eventbus.Subscribe(s.refetchStart),
		eventbus.Subscribe(s.refetchFinish),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *subscriber) compileStart(ctx context.Context, e events.CompileStart) {
	id, _ := runid.FromContext(ctx)
	_, span := s.tracer.Start(ctx, "refetch.compile")
	span.SetAttributes(
		attribute.String("refetch.compile.id", id),
		attribute.Int("refetch.fragments", e.Fragments),
	)
	s.compileSpans.Store(id, span)
}

func (s *subscriber) compileFinish(ctx context.Context, e events.CompileFinish) {
	id, _ := runid.FromContext(ctx)
	v, ok := s.compileSpans.LoadAndDelete(id)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(
		attribute.Int("refetch.roots", e.Roots),
		attribute.Int("refetch.violations", e.Violations),
	)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}

func (s *subscriber) refetchStart(ctx context.Context, e events.RefetchStart) {
	id, _ := runid.FromContext(ctx)
	parent := ctx
	if v, ok := s.compileSpans.Load(e.CompileID); ok {
		parent = trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	_, span := s.tracer.Start(parent, "refetch.fragment")
	span.SetAttributes(
		attribute.String("graphql.fragment.name", e.Fragment),
		attribute.String("graphql.operation.name", e.QueryName),
	)
	s.fragmentSpans.Store(id, span)
}

func (s *subscriber) refetchFinish(ctx context.Context, e events.RefetchFinish) {
	id, _ := runid.FromContext(ctx)
	v, ok := s.fragmentSpans.LoadAndDelete(id)
	if !ok {
		return
	}
	span := v.(trace.Span)
	if e.Path != nil {
		span.SetAttributes(attribute.StringSlice("refetch.path", e.Path))
	}
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, "fragment is not refetchable")
	}
	span.End()
}
