package observability

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flightdesk/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const tracerShutdownTimeout = 5 * time.Second

// SetupOTel installs a batching OTLP tracer provider for one flightdesk
// process. Without an endpoint it is a no-op and the global no-op tracer
// stays in place, so spans in the catalog and booking services cost nothing.
func SetupOTel(ctx context.Context, cfg *config.Config, serviceName string) (func(), error) {
	if cfg.OTLPEndpoint == "" {
		return func() {}, nil
	}

	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "otlp exporter")
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceNamespaceKey.String("flightdesk"),
		attribute.String("flightdesk.store_backend", cfg.StoreBackend),
	))
	if err != nil {
		return nil, errors.Wrap(err, "otel resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
		defer cancel()
		tp.Shutdown(shutdownCtx)
	}, nil
}
