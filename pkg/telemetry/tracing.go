package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// TracerName — имя трейсера консьюмера.
const TracerName = "github.com/Gunvolt24/cdc_ingest"

// Options — параметры экспорта трейсов.
type Options struct {
	ServiceName string
	Endpoint    string // host:port OTLP/HTTP коллектора
	SampleRatio float64
	Topic       string // топик и группа попадают в ресурс, чтобы различать инстансы
	GroupID     string
}

func (o Options) withDefaults() Options {
	if o.ServiceName == "" {
		o.ServiceName = "cdc-consumer"
	}
	if o.Endpoint == "" {
		o.Endpoint = "localhost:4318"
	}
	o.SampleRatio = clampRatio(o.SampleRatio)
	return o
}

// Resource — описание сервиса для провайдера трейсов.
func (o Options) Resource() *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(o.ServiceName),
		attribute.String("messaging.system", "kafka"),
	}
	if o.Topic != "" {
		attrs = append(attrs, attribute.String("messaging.destination.name", o.Topic))
	}
	if o.GroupID != "" {
		attrs = append(attrs, attribute.String("messaging.kafka.consumer.group", o.GroupID))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

// SetupTracing настраивает OTLP/HTTP экспорт, семплинг по доле (с учётом родителя из заголовков)
// и глобальные пропагаторы. Возвращает функцию завершения провайдера.
func SetupTracing(ctx context.Context, opts Options) (func(context.Context) error, error) {
	opts = opts.withDefaults()

	// Экспортёр OTLP/HTTP без TLS.
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(opts.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
		sdktrace.WithResource(opts.Resource()),
	)

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		),
	)

	return traceProvider.Shutdown, nil
}

// clampRatio — границы семплинга [0..1].
func clampRatio(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
