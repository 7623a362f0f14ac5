package almanac

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InitOTelHNY uses the Honeycomb library to interface with OTel.
// Exporter settings come from the usual OTEL_* and HONEYCOMB_* variables.
func InitOTelHNY(service string) (func(), error) {
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(service),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure OpenTelemetry: %w", err)
	}
	return func() { otelShutdown() }, nil
}

// InitOTelGRF uses the Grafana recommended configuration including Baggage for propagation
func InitOTelGRF(ctx context.Context) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}

// InitOTel picks a setup by name: "honeycomb", "grafana", or "none".
// The returned shutdown func is never nil.
func InitOTel(ctx context.Context, mode, service string) (func(), error) {
	switch mode {
	case "honeycomb":
		shutdown, err := InitOTelHNY(service)
		if err != nil {
			return func() {}, err
		}
		return shutdown, nil
	case "grafana":
		tp, err := InitOTelGRF(ctx)
		if err != nil {
			return func() {}, err
		}
		return func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Error("TracerProvider shutdown failed", slog.Any("error", err))
			}
		}, nil
	case "", "none":
		return func() {}, nil
	default:
		return func() {}, fmt.Errorf("unknown otel mode: %q", mode)
	}
}
