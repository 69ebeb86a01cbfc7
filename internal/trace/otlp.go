package trace

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// DefaultServiceName is reported when neither config nor OTEL_SERVICE_NAME
// names the service.
const DefaultServiceName = "neuralscan"

// ExporterConfig configures OTLP export. Empty fields fall back to the
// standard OTEL_* environment variables.
type ExporterConfig struct {
	Endpoint    string // host:port of the OTLP/HTTP receiver
	ServiceName string
	Insecure    bool
}

// OTLPExporter exports traces to an OTLP endpoint
type OTLPExporter struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
	endpoint string
}

// NewOTLPExporter creates an OTLP exporter when an endpoint is configured.
// Returns nil, nil if it is not (export disabled).
func NewOTLPExporter(ctx context.Context, cfg ExporterConfig) (*OTLPExporter, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		return nil, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter for %s: %w", endpoint, err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	return &OTLPExporter{
		provider: provider,
		tracer:   provider.Tracer("neuralscan/pipeline"),
		endpoint: endpoint,
	}, nil
}

// Endpoint returns the receiver address.
func (e *OTLPExporter) Endpoint() string {
	if e == nil {
		return ""
	}
	return e.endpoint
}

// ExportTrace exports a finished Trace to OTLP
func (e *OTLPExporter) ExportTrace(ctx context.Context, t *Trace) error {
	if e == nil || t.RootSpan == nil {
		return nil
	}

	traceID, err := hexToTraceID(t.ID)
	if err != nil {
		return fmt.Errorf("export trace %s: %w", t.ID, err)
	}

	traceCtx := oteltrace.ContextWithSpanContext(ctx, oteltrace.NewSpanContext(oteltrace.SpanContextConfig{
		TraceID:    traceID,
		TraceFlags: oteltrace.FlagsSampled,
	}))
	e.exportSpan(traceCtx, t.RootSpan, oteltrace.SpanContext{})
	return nil
}

// exportSpan recursively exports a span and its children. The SDK assigns new
// span IDs; the trace ID, nesting and timing are preserved.
func (e *OTLPExporter) exportSpan(ctx context.Context, span *Span, parent oteltrace.SpanContext) {
	parentCtx := ctx
	if parent.IsValid() {
		parentCtx = oteltrace.ContextWithSpanContext(ctx, parent)
	}

	_, otlpSpan := e.tracer.Start(parentCtx, span.Name, oteltrace.WithTimestamp(span.StartTime))
	otlpSpan.SetAttributes(spanAttributes(span.Attributes)...)
	otlpSpan.End(oteltrace.WithTimestamp(span.StartTime.Add(span.Duration)))

	current := otlpSpan.SpanContext()
	for _, child := range span.Children {
		e.exportSpan(ctx, child, current)
	}
}

// spanAttributes maps recorder attributes into the neuralscan.* namespace.
func spanAttributes(in map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(in))
	for k, v := range in {
		var key string
		switch k {
		case "run_id":
			key = "neuralscan.run.id"
		case "files":
			key = "neuralscan.upload.files"
		case "delay":
			key = "neuralscan.stage.delay"
		case "outcome":
			key = "neuralscan.outcome"
		default:
			key = "neuralscan." + k
		}
		attrs = append(attrs, attribute.String(key, v))
	}
	return attrs
}

// hexToTraceID converts a 32-character hex string to trace.TraceID
func hexToTraceID(hexStr string) (oteltrace.TraceID, error) {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return oteltrace.TraceID{}, err
	}
	if len(b) != 16 {
		return oteltrace.TraceID{}, fmt.Errorf("trace id %q: want 16 bytes, got %d", hexStr, len(b))
	}
	var traceID oteltrace.TraceID
	copy(traceID[:], b)
	return traceID, nil
}

// Shutdown flushes and closes the exporter
func (e *OTLPExporter) Shutdown(ctx context.Context) error {
	if e == nil {
		return nil
	}
	return e.provider.Shutdown(ctx)
}
