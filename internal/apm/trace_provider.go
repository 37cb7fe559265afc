// Package apm wires the OpenTelemetry trace pipeline.
package apm

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/logger"
)

type Provider string

const (
	ZipkinProvider    Provider = "zipkin"
	HoneycombProvider Provider = "honeycomb"
	NewRelicProvider  Provider = "newrelic"
	ConsoleProvider   Provider = "console"
	EmptyProvider     Provider = "empty"
)

// ParseProvider maps a config value to a Provider. Unknown values map to EmptyProvider.
func ParseProvider(s string) Provider {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ZipkinProvider, HoneycombProvider, NewRelicProvider, ConsoleProvider:
		return p
	default:
		return EmptyProvider
	}
}

// TraceProvider flushes and stops the exporter.
type TraceProvider interface {
	Stop() error
}

// Config selects and configures the span exporter.
type Config struct {
	ServiceName string
	Provider    Provider
	Endpoint    string
	// Headers is a single "key=value" pair, as exported in OTEL_EXPORTER_OTLP_HEADERS.
	Headers string
	// HTTP selects the OTLP/HTTP exporter instead of gRPC.
	HTTP bool
}

type emptyProvider struct{}

func (emptyProvider) Stop() error { return nil }

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.tp.Shutdown(ctx)
}

// NewTraceProvider installs a global tracer provider for cfg.Provider.
// EmptyProvider leaves the otel no-op provider in place.
func NewTraceProvider(ctx context.Context, log logger.LoggerInterface, cfg Config) (TraceProvider, error) {
	if cfg.Provider == EmptyProvider || cfg.Provider == "" {
		log.Warn(ctx, "tracing disabled", "provider", cfg.Provider)
		return emptyProvider{}, nil
	}

	exp, err := newExporter(ctx, log, cfg)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("trace exporter "+string(cfg.Provider)))
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("otel.provider", string(cfg.Provider)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing enabled", "provider", cfg.Provider, "endpoint", cfg.Endpoint)
	return &traceProvider{tp}, nil
}

func newExporter(ctx context.Context, log logger.LoggerInterface, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Provider {
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ZipkinProvider:
		return zipkin.New(cfg.Endpoint)
	case NewRelicProvider:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithHeaders(map[string]string{"api-key": cfg.Headers}),
		)
	case HoneycombProvider:
		key, value, ok := strings.Cut(cfg.Headers, "=")
		if !ok {
			return nil, apperror.New(apperror.CodeInvalidFormat,
				apperror.WithContext("otlp headers, expected key=value"))
		}
		headers := map[string]string{key: value}
		if cfg.HTTP {
			log.Info(ctx, "initializing honeycomb http/protobuf exporter", "endpoint", cfg.Endpoint)
			return otlptracehttp.New(ctx,
				otlptracehttp.WithEndpointURL(cfg.Endpoint),
				otlptracehttp.WithHeaders(headers),
			)
		}
		log.Info(ctx, "initializing honeycomb grpc exporter", "endpoint", cfg.Endpoint)
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(cfg.Endpoint),
			otlptracegrpc.WithHeaders(headers),
		)
	default:
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext(string(cfg.Provider)))
	}
}
