// Package telemetry wires OpenTelemetry tracing and Prometheus-backed
// metrics for the engine, grounded on alex's internal/observability
// config shape (Logging/Metrics/Tracing sections) and
// internal/domain/agent/react/tracing.go's span-helper style. Unlike
// alex, which always exports to Jaeger, this package supports the
// otlp/jaeger/zipkin/none backends SPEC_FULL's ambient observability
// section names, selected via config.EngineConfig.TracingBackend.
package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"

	"agentlens/internal/config"
)

const serviceName = "agentlens"

// Provider bundles the OTel providers this process registers globally,
// plus the Prometheus registry the HTTP /metrics endpoint (wired by
// cmd/agentlens) serves from.
type Provider struct {
	Registry       *prometheus.Registry
	Collector      *Collector
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *metric.MeterProvider
}

// Setup builds and globally registers the tracer and meter providers
// named by cfg, and constructs a Collector of agentlens-specific
// Prometheus metrics sharing the same registry as the OTel Prometheus
// exporter (one /metrics endpoint, two instrumentation paths).
func Setup(ctx context.Context, cfg config.EngineConfig) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	registry := prometheus.NewRegistry()
	promExporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("telemetry: prometheus exporter: %w", err)
	}
	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(promExporter),
	)
	otel.SetMeterProvider(meterProvider)

	tracerProvider, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tracerProvider)

	return &Provider{
		Registry:       registry,
		Collector:      NewCollector(registry),
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
	}, nil
}

func newTracerProvider(ctx context.Context, cfg config.EngineConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	switch cfg.TracingBackend {
	case "otlp":
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.TracingEndpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("telemetry: otlp exporter: %w", err)
		}
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res), sdktrace.WithBatcher(exp)), nil
	case "jaeger":
		endpoint := cfg.TracingEndpoint
		if endpoint == "" {
			endpoint = "http://localhost:14268/api/traces"
		}
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
		if err != nil {
			return nil, fmt.Errorf("telemetry: jaeger exporter: %w", err)
		}
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res), sdktrace.WithBatcher(exp)), nil
	case "zipkin":
		endpoint := cfg.TracingEndpoint
		if endpoint == "" {
			endpoint = "http://localhost:9411/api/v2/spans"
		}
		exp, err := zipkin.New(endpoint)
		if err != nil {
			return nil, fmt.Errorf("telemetry: zipkin exporter: %w", err)
		}
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res), sdktrace.WithBatcher(exp)), nil
	default:
		// "none" or unrecognized: a provider with no exporter still
		// satisfies the global trace.Tracer contract, it just drops
		// every span at Shutdown (no batcher, no recording requirement).
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res), sdktrace.WithSampler(sdktrace.NeverSample())), nil
	}
}

// Tracer returns the named tracer off the globally registered provider,
// matching the `otel.Tracer(scope)` call style in alex's tracing.go.
func Tracer(scope string) trace.Tracer {
	return otel.Tracer(scope)
}

// Shutdown flushes and closes both providers. Safe to call once at
// process exit.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: tracer shutdown: %w", err)
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: meter shutdown: %w", err)
	}
	return nil
}
