package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	eventbus "github.com/hanpama/refetchgen/internal/eventbus"
	events "github.com/hanpama/refetchgen/internal/events"
	runid "github.com/hanpama/refetchgen/internal/runid"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "refetchgen")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSubscriberSpans(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	unsubscribe := newSubscriber(tp.Tracer("test")).register()
	defer unsubscribe()

	ctx, compileID := runid.NewContext(context.Background())
	eventbus.Publish(ctx, events.CompileStart{Fragments: 2})

	okCtx, _ := runid.NewContext(ctx)
	eventbus.Publish(okCtx, events.RefetchStart{CompileID: compileID, Fragment: "A", QueryName: "ARefetch"})
	eventbus.Publish(okCtx, events.RefetchFinish{CompileID: compileID, Fragment: "A", QueryName: "ARefetch", Path: []string{"node"}})

	failCtx, _ := runid.NewContext(ctx)
	eventbus.Publish(failCtx, events.RefetchStart{CompileID: compileID, Fragment: "B", QueryName: "BRefetch"})
	eventbus.Publish(failCtx, events.RefetchFinish{CompileID: compileID, Fragment: "B", QueryName: "BRefetch", Err: errors.New("boom")})

	eventbus.Publish(ctx, events.CompileFinish{Roots: 1, Violations: 1})

	spans := rec.Ended()
	require.Len(t, spans, 3)
	byName := map[string][]sdktrace.ReadOnlySpan{}
	for _, s := range spans {
		byName[s.Name()] = append(byName[s.Name()], s)
	}
	require.Len(t, byName["refetch.compile"], 1)
	require.Len(t, byName["refetch.fragment"], 2)

	compile := byName["refetch.compile"][0]
	for _, s := range byName["refetch.fragment"] {
		require.Equal(t, compile.SpanContext().SpanID(), s.Parent().SpanID())
		require.Equal(t, compile.SpanContext().TraceID(), s.SpanContext().TraceID())
	}
	require.Equal(t, codes.Error, byName["refetch.fragment"][1].Status().Code)
	require.Equal(t, codes.Unset, compile.Status().Code)
}
