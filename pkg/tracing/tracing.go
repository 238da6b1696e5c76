// Package tracing wires OpenTelemetry spans into the service. Spans are
// started from the global tracer provider, which stays a no-op until Setup
// installs an SDK provider; finished spans are then written to slog at
// debug level.
package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Adithya-Monish-Kumar-K/arabic-quote-search"

// Tracer returns the tracer of the current global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Start opens a span named name, as a child of the span in ctx if any.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// Fail records err on span and marks it as failed.
func Fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// NewProvider builds an SDK provider that samples sampleRatio of new traces
// and hands finished spans to exp in batches.
func NewProvider(exp sdktrace.SpanExporter, sampleRatio float64) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
		sdktrace.WithBatcher(exp),
	)
}

// Setup installs a provider that logs spans through logger and returns its
// shutdown, which flushes pending spans.
func Setup(logger *slog.Logger, sampleRatio float64) func(context.Context) error {
	tp := NewProvider(NewLogExporter(logger), sampleRatio)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// LogExporter is a span exporter that writes one debug record per span.
type LogExporter struct {
	logger *slog.Logger
}

// NewLogExporter returns an exporter writing to logger.
func NewLogExporter(logger *slog.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		sc := s.SpanContext()
		attrs := []any{
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
			"span", s.Name(),
			"duration_us", s.EndTime().Sub(s.StartTime()).Microseconds(),
		}
		if parent := s.Parent(); parent.IsValid() {
			attrs = append(attrs, "parent_id", parent.SpanID().String())
		}
		if st := s.Status(); st.Code == codes.Error {
			attrs = append(attrs, "error", st.Description)
		}
		for _, kv := range s.Attributes() {
			attrs = append(attrs, string(kv.Key), kv.Value.AsInterface())
		}
		e.logger.DebugContext(ctx, "span", attrs...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}
