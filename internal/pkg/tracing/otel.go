// tracing настраивает OpenTelemetry: экспорт трейсов по OTLP/gRPC
// и W3C-пропагацию контекста.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/pribylovaa/go-contacts-api/internal/config"
)

// OTel держит провайдер трейсов до остановки сервиса.
type OTel struct {
	TracerProvider *sdktrace.TracerProvider
}

// SetupOTel регистрирует глобальные провайдер и пропагатор.
// При выключенном экспорте ставится только пропагатор, спаны не пишутся.
func SetupOTel(ctx context.Context, cfg config.OTelConfig) (*OTel, error) {
	const op = "tracing.otel.SetupOTel"

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	if !cfg.Enable {
		return &OTel{}, nil
	}

	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithMaxExportBatchSize(512), sdktrace.WithBatchTimeout(2*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)

	return &OTel{TracerProvider: tp}, nil
}

// Shutdown дописывает накопленные спаны.
func (o *OTel) Shutdown(ctx context.Context) error {
	if o == nil || o.TracerProvider == nil {
		return nil
	}

	return o.TracerProvider.Shutdown(ctx)
}
