// Package telemetry wires OpenTelemetry tracing for refresh runs and outbound requests.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"kiosk/internal/config"
	"kiosk/internal/logger"
)

// Telemetry owns the installed tracer provider, if any.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
}

// Enabled reports whether spans are being exported.
func (t Telemetry) Enabled() bool {
	return t.TracerProvider != nil
}

// Shutdown flushes pending spans.
func (t Telemetry) Shutdown(ctx context.Context) error {
	if t.TracerProvider == nil {
		return nil
	}

	return t.TracerProvider.Shutdown(ctx)
}

// Setup installs an OTLP/HTTP exporting tracer provider when an endpoint is
// configured. Without one the global no-op provider stays in place.
func Setup(ctx context.Context, cfg config.TelemetryConfig, log *logger.Logger) (Telemetry, error) {
	if cfg.OTLPEndpoint == "" {
		log.Debug("telemetry disabled, no otlp endpoint configured")

		return Telemetry{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "kiosk"
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return Telemetry{}, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return Telemetry{}, fmt.Errorf("failed to create otlp trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(provider)

	log.Info("tracer export initialized", "type", "http", "endpoint", cfg.OTLPEndpoint)

	return Telemetry{TracerProvider: provider}, nil
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
