// Package tracing provides OpenTelemetry-based tracing infrastructure.
// It supports multiple exporters (stdout, OTLP) and provides domain-specific
// span helpers for frame tracking and timesheet synchronization.
package tracing

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName is the name used for the zebra tracer.
	TracerName = "github.com/tcrawf/zebra"

	// Version is the semantic version of the tracer.
	Version = "1.0.0"
)

// ExporterType defines the type of trace exporter.
type ExporterType string

const (
	ExporterNone   ExporterType = "none"
	ExporterStdout ExporterType = "stdout"
	ExporterOTLP   ExporterType = "otlp"
)

// Config holds tracing configuration.
type Config struct {
	Enabled      bool         // Whether tracing is enabled
	ExporterType ExporterType // Type of exporter to use
	OTLPEndpoint string       // OTLP collector endpoint (for OTLP exporter)
	ServiceName  string       // Service name for traces
	Environment  string       // Deployment environment (development, production)
	SampleRate   float64      // Sampling rate (0.0 to 1.0)
	Output       io.Writer    // Output for stdout exporter (defaults to os.Stdout)
}

// DefaultConfig returns sensible default tracing configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		ExporterType: ExporterNone,
		ServiceName:  "zebra",
		Environment:  "development",
		SampleRate:   1.0,
	}
}

// Tracer wraps an OpenTelemetry tracer with domain-specific functionality.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	config   Config
}

// global is the package-level default tracer.
var (
	global     *Tracer
	globalOnce sync.Once
)

// Init initializes the global tracer with the provided configuration.
func Init(ctx context.Context, cfg Config) (*Tracer, error) {
	var err error
	globalOnce.Do(func() {
		global, err = New(ctx, cfg)
	})
	return global, err
}

// Default returns the global tracer, or a no-op tracer if not initialized.
func Default() *Tracer {
	if global == nil {
		return &Tracer{
			tracer: otel.Tracer(TracerName),
			config: DefaultConfig(),
		}
	}
	return global
}

// New creates a new Tracer with the provided configuration.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		return &Tracer{
			tracer: noop.NewTracerProvider().Tracer(TracerName),
			config: cfg,
		}, nil
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	// Create resource without merging with Default() to avoid schema URL conflicts.
	// The default resource's schema URL may conflict with our semconv version.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
			attribute.String("deployment.environment", cfg.Environment),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0.0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(provider)

	return &Tracer{
		tracer:   provider.Tracer(TracerName, trace.WithInstrumentationVersion(Version)),
		provider: provider,
		config:   cfg,
	}, nil
}

// createExporter creates the appropriate exporter based on configuration.
func createExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		opts := []stdouttrace.Option{
			stdouttrace.WithPrettyPrint(),
		}
		if cfg.Output != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Output))
		}
		return stdouttrace.New(opts...)

	case ExporterOTLP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithInsecure(),
		}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.ExporterType)
	}
}

// Shutdown gracefully shuts down the tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// Start starts a new span with the given name.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// SpanFromContext returns the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// --- Domain-specific span helpers ---

// TrackSpan represents one frame state machine operation.
type TrackSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartTrackSpan starts a span for a track operation (start, stop, cancel, add).
func (t *Tracer) StartTrackSpan(ctx context.Context, operation string) (context.Context, *TrackSpan) {
	ctx, span := t.tracer.Start(ctx, "track."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("track.operation", operation),
		),
	)

	return ctx, &TrackSpan{span: span, ctx: ctx}
}

// SetFrame records the frame the operation acted on.
func (ts *TrackSpan) SetFrame(frameUUID, activity string) {
	ts.span.SetAttributes(
		attribute.String("frame.uuid", frameUUID),
		attribute.String("frame.activity", activity),
	)
}

// End ends the track span with success status.
func (ts *TrackSpan) End() {
	ts.span.SetStatus(codes.Ok, "track operation completed")
	ts.span.End()
}

// EndWithError ends the track span with error status.
func (ts *TrackSpan) EndWithError(err error) {
	ts.span.RecordError(err)
	ts.span.SetStatus(codes.Error, err.Error())
	ts.span.End()
}

// SyncSpan represents one timesheet synchronization pass.
type SyncSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartSyncSpan starts a span for a sync operation (push, pull, delete, merge).
func (t *Tracer) StartSyncSpan(ctx context.Context, operation string) (context.Context, *SyncSpan) {
	ctx, span := t.tracer.Start(ctx, "sync."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("sync.operation", operation),
		),
	)

	return ctx, &SyncSpan{span: span, ctx: ctx}
}

// SetDateRange records the date window the pass covered.
func (ss *SyncSpan) SetDateRange(from, to string) {
	ss.span.SetAttributes(
		attribute.String("sync.from", from),
		attribute.String("sync.to", to),
	)
}

// SetCounts records how many records were written, skipped, and failed.
func (ss *SyncSpan) SetCounts(written, skipped, failed int) {
	ss.span.SetAttributes(
		attribute.Int("sync.written", written),
		attribute.Int("sync.skipped", skipped),
		attribute.Int("sync.failed", failed),
	)
}

// End ends the sync span with success status.
func (ss *SyncSpan) End() {
	ss.span.SetStatus(codes.Ok, "sync completed")
	ss.span.End()
}

// EndWithError ends the sync span with error status.
func (ss *SyncSpan) EndWithError(err error) {
	ss.span.RecordError(err)
	ss.span.SetStatus(codes.Error, err.Error())
	ss.span.End()
}

// RemoteSpan represents one request to the Zebra API.
type RemoteSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartRemoteSpan starts a client span for a Zebra API call.
func (t *Tracer) StartRemoteSpan(ctx context.Context, operation string) (context.Context, *RemoteSpan) {
	ctx, span := t.tracer.Start(ctx, "zebra."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("zebra.operation", operation),
		),
	)

	return ctx, &RemoteSpan{span: span, ctx: ctx}
}

// SetRemoteID records the Zebra record id the call addressed.
func (rs *RemoteSpan) SetRemoteID(id int64) {
	rs.span.SetAttributes(attribute.Int64("zebra.record_id", id))
}

// SetStatusCode records the HTTP status the call returned.
func (rs *RemoteSpan) SetStatusCode(code int) {
	rs.span.SetAttributes(attribute.Int("zebra.status_code", code))
}

// End ends the remote span with success status.
func (rs *RemoteSpan) End() {
	rs.span.SetStatus(codes.Ok, "request completed")
	rs.span.End()
}

// EndWithError ends the remote span with error status.
func (rs *RemoteSpan) EndWithError(err error) {
	rs.span.RecordError(err)
	rs.span.SetStatus(codes.Error, err.Error())
	rs.span.End()
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span.
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
}

// SetAttribute sets an attribute on the current span.
func SetAttribute(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	switch v := value.(type) {
	case string:
		span.SetAttributes(attribute.String(key, v))
	case int:
		span.SetAttributes(attribute.Int(key, v))
	case int64:
		span.SetAttributes(attribute.Int64(key, v))
	case float64:
		span.SetAttributes(attribute.Float64(key, v))
	case bool:
		span.SetAttributes(attribute.Bool(key, v))
	}
}
