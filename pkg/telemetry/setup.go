package telemetry

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Config for the tracing subsystem. Tracing is disabled when the Jaeger URL
// is empty.
type Config struct {
	// The URL of the Jaeger collector endpoint.
	JaegerURL string `yaml:"jaegerUrl"`
}

// SetupTelemetry configures OpenTelemetry for the SDK and installs the
// global trace provider. The caller is responsible for shutting the returned
// provider down on exit.
func SetupTelemetry(config Config) (*tracesdk.TracerProvider, error) {
	res, err := newResource()
	if err != nil {
		return nil, err
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(config.JaegerURL)))
	if err != nil {
		return nil, err
	}

	provider := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.AlwaysSample()),
		tracesdk.WithBatcher(exporter),
		tracesdk.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	tracer = otel.Tracer(serviceName)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return provider, nil
}

// Creates the resource identifying this client instance.
func newResource() (*resource.Resource, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		attribute.String("ID", id.String()),
	), nil
}
