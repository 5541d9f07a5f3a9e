package observability

import (
	"context"
	"errors"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const instrumentationName = "object-whisper"

// Observability bundles the logger and tracer handed to every component.
// It is created once at startup and passed by reference.
type Observability struct {
	Logger *zap.Logger
	Tracer trace.Tracer

	shutdown func(context.Context) error
}

// Options configures New.
type Options struct {
	Logger LoggerOptions
	// TraceStdout exports finished spans as JSON to TraceWriter (stdout when nil).
	TraceStdout bool
	TraceWriter io.Writer
	ServiceName string
}

// New builds the logger and, when requested, an SDK tracer provider with a
// stdout exporter. Without exporting, spans go to a no-op tracer.
func New(opts Options) (*Observability, error) {
	logger, err := NewLogger(opts.Logger)
	if err != nil {
		return nil, err
	}

	if !opts.TraceStdout {
		return NewWithTracerProvider(logger, noop.NewTracerProvider()), nil
	}

	w := opts.TraceWriter
	if w == nil {
		w = os.Stdout
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}

	name := opts.ServiceName
	if name == "" {
		name = "o2t"
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)

	obs := NewWithTracerProvider(logger, tp)
	obs.shutdown = tp.Shutdown
	return obs, nil
}

// NewWithTracerProvider wires an existing logger and tracer provider.
func NewWithTracerProvider(logger *zap.Logger, tp trace.TracerProvider) *Observability {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Observability{
		Logger: logger,
		Tracer: tp.Tracer(instrumentationName),
	}
}

// NewNop returns a handle that discards logs and spans.
func NewNop() *Observability {
	return NewWithTracerProvider(zap.NewNop(), noop.NewTracerProvider())
}

// Shutdown flushes pending spans and syncs the logger.
func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if o.shutdown != nil {
		errs = append(errs, o.shutdown(ctx))
	}
	// Sync on stderr returns EINVAL/ENOTTY on most terminals.
	_ = o.Logger.Sync()
	return errors.Join(errs...)
}

// StartSpan starts a span named name and returns a logger annotated with the
// span's trace id.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, *zap.Logger) {
	ctx, span := o.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	logger := o.Logger
	if sc := span.SpanContext(); sc.HasTraceID() {
		logger = logger.With(zap.String("trace_id", sc.TraceID().String()))
	}
	return ctx, span, logger
}

// RecordError marks span as failed with err.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
