// Package telemetry installs the OpenTelemetry tracer provider used by the
// tool registry.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config controls trace export. Tracing is off unless Enabled is set and
// Endpoint names an OTLP/HTTP collector.
type Config struct {
	Enabled  bool   `toml:"enabled" env:"DNS_MCP_OTEL_ENABLED"`
	Endpoint string `toml:"endpoint" env:"DNS_MCP_OTEL_ENDPOINT"`
}

// Validate rejects an enabled config with no endpoint.
func (c Config) Validate() error {
	if c.Enabled && c.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is set")
	}
	return nil
}

// ShutdownFunc flushes pending spans and stops the provider.
type ShutdownFunc func(context.Context) error

// Setup registers a global tracer provider exporting to cfg.Endpoint.
// When tracing is disabled it registers nothing and returns a no-op
// shutdown, leaving spans on the default no-op tracer.
func Setup(ctx context.Context, cfg Config, serviceName, serviceVersion string) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled || cfg.Endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noop, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("failed to build trace resource: %w", err)
	}

	return Install(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

// Install builds a tracer provider from opts and makes it the global
// provider, with W3C trace-context propagation.
func Install(opts ...sdktrace.TracerProviderOption) ShutdownFunc {
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown
}
