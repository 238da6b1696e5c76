package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestSpanTree(t *testing.T) {
	rec := withRecorder(t)

	ctx, root := Start(context.Background(), "search", attribute.String("request_id", "req-1"))
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			_, child := Start(ctx, "shard", attribute.Int("shard", shard))
			child.End()
		}(i)
	}
	wg.Wait()
	root.End()

	ended := rec.Ended()
	require.Len(t, ended, 5)
	rootID := root.SpanContext().SpanID()
	children := 0
	for _, s := range ended {
		assert.Equal(t, root.SpanContext().TraceID(), s.SpanContext().TraceID())
		if s.Name() == "shard" {
			children++
			assert.Equal(t, rootID, s.Parent().SpanID())
		}
	}
	assert.Equal(t, 4, children)
	assert.Equal(t, root, trace.SpanFromContext(ctx))
}

func TestFailMarksSpan(t *testing.T) {
	rec := withRecorder(t)

	_, span := Start(context.Background(), "shard")
	Fail(span, errors.New("scan aborted"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "scan aborted", ended[0].Status().Description)
}

func TestLogExporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tp := NewProvider(NewLogExporter(logger), 1)

	ctx, root := tp.Tracer("test").Start(context.Background(), "search.execute")
	_, child := tp.Tracer("test").Start(ctx, "search.shard", trace.WithAttributes(attribute.Int("hits", 3)))
	child.End()
	root.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "msg=span"))
	assert.Contains(t, out, "span=search.shard")
	assert.Contains(t, out, "hits=3")
	assert.Contains(t, out, "parent_id="+root.SpanContext().SpanID().String())
}
