// Package telemetry sets up OpenTelemetry tracing for the CLI and the MCP
// server. Tracing is off unless OTEL_ENABLED is true; the query session and
// the loader then emit spans through the global TracerProvider.
//
//	cfg := telemetry.LoadFromEnv(version)
//	shutdown, err := telemetry.Init(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and stops the TracerProvider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs a global TracerProvider exporting over OTLP. A nil or
// disabled config leaves the no-op provider in place.
func Init(ctx context.Context, cfg *Config) (ShutdownFunc, error) {
	if cfg == nil || !cfg.Enabled {
		return noopShutdown, nil
	}
	if err := cfg.Validate(); err != nil {
		return noopShutdown, err
	}

	res, err := buildResource(cfg)
	if err != nil {
		return noopShutdown, err
	}
	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}
	sampler, _ := ParseSampler(cfg.Sampler, cfg.SamplerArg)

	tp := newProvider(res, trace.WithBatcher(exporter), sampler)
	install(tp)
	return tp.Shutdown, nil
}

func newProvider(res *resource.Resource, processor trace.TracerProviderOption, sampler trace.Sampler) *trace.TracerProvider {
	return trace.NewTracerProvider(
		trace.WithResource(res),
		processor,
		trace.WithSampler(sampler),
	)
}

func install(tp *trace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}
