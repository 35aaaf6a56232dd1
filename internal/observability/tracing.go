package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/internal/logging"
)

// TracerName is the instrumentation scope of spans emitted by this module.
const TracerName = "github.com/signalsfoundry/sar-geolocation"

const (
	envTracingEnabled = "SARGEO_TRACING_ENABLED"
	envExporter       = "SARGEO_TRACING_EXPORTER"
	envServiceName    = "SARGEO_TRACING_SERVICE_NAME"
	envSampleRatio    = "SARGEO_TRACING_SAMPLE_RATIO"
	envOTLPEndpoint   = "SARGEO_OTLP_ENDPOINT"

	defaultServiceName  = "sargeo"
	defaultOTLPEndpoint = "localhost:4317"
)

// Exporter names a span exporter.
type Exporter string

const (
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

// Span attribute keys shared by every geolocation span.
const (
	AttrProduct      = attribute.Key("sar.product")
	AttrProductKind  = attribute.Key("sar.product_kind")
	AttrBursts       = attribute.Key("sar.bursts")
	AttrGCPs         = attribute.Key("sar.gcps")
	AttrOrbitRecords = attribute.Key("sar.orbit_records")
	AttrBistatic     = attribute.Key("sar.bistatic_correction")
)

// TracingConfig governs how tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    Exporter
	Endpoint    string    // OTLP collector address
	SampleRatio float64   // fraction of root traces kept
	Output      io.Writer // stdout exporter destination, os.Stdout when nil
}

// TracingConfigFromEnv reads the SARGEO_TRACING_* variables. Unset or
// out-of-range values fall back to stdout export of every trace.
func TracingConfigFromEnv() TracingConfig {
	cfg := TracingConfig{
		Enabled:     strings.EqualFold(os.Getenv(envTracingEnabled), "true"),
		ServiceName: os.Getenv(envServiceName),
		Exporter:    Exporter(strings.ToLower(os.Getenv(envExporter))),
		Endpoint:    os.Getenv(envOTLPEndpoint),
		SampleRatio: 1,
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if cfg.Exporter == "" {
		cfg.Exporter = ExporterStdout
	}
	if raw := os.Getenv(envSampleRatio); raw != "" {
		if r, err := strconv.ParseFloat(raw, 64); err == nil && r >= 0 && r <= 1 {
			cfg.SampleRatio = r
		}
	}
	return cfg
}

// InitTracing installs the global tracer provider described by cfg and
// returns the function that flushes it. Disabled tracing installs a noop
// provider, so spans are free and never valid.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := cfg.exporter(ctx)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.namespace", "sar-geolocation"),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", string(cfg.Exporter)),
		logging.String("service_name", cfg.ServiceName),
		logging.Float("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

func (cfg TracingConfig) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch Exporter(strings.ToLower(string(cfg.Exporter))) {
	case ExporterStdout, "":
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithoutTimestamps())
	case ExporterOTLP, "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter)
	}
}

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartSpan starts a span tagged with the product carried by ctx, if any.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if p := logging.ProductFromContext(ctx); p != "" {
		attrs = append(attrs, AttrProduct.String(p))
	}
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// SceneAttributes describes the acquisition behind m.
func SceneAttributes(m *core.SensorModel) []attribute.KeyValue {
	if m == nil {
		return nil
	}
	p := m.Params()
	return []attribute.KeyValue{
		AttrProductKind.String(p.Product.String()),
		AttrBursts.Int(len(m.Bursts())),
		AttrGCPs.Int(len(m.GCPs())),
		AttrOrbitRecords.Int(len(m.Orbits())),
		AttrBistatic.Bool(p.BistaticCorrection),
	}
}

// ShutdownWithTimeout flushes the tracer provider within five seconds. A
// failed flush is logged, not returned.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
