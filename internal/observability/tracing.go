package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/store"
)

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing exports spans over OTLP gRPC to endpoint. An empty endpoint
// leaves the global no-op provider in place and returns nil.
func InitTracing(ctx context.Context, serviceName, environment, endpoint string) (*TracerProvider, error) {
	if endpoint == "" {
		return nil, nil
	}

	exporter, err := otlptrace.New(
		ctx,
		otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &TracerProvider{
		provider: tp,
		tracer:   tp.Tracer(serviceName),
	}, nil
}

// Shutdown flushes and stops the provider. It is safe on a nil provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

// TraceStore wraps a node store with spans.
func TraceStore(inner store.NodeStore, tracer trace.Tracer) store.NodeStore {
	if tracer == nil {
		tracer = otel.Tracer("github.com/doubletgeekedup/int-dashboard-sub000/internal/store")
	}
	return &tracedStore{inner: inner, tracer: tracer}
}

type tracedStore struct {
	inner  store.NodeStore
	tracer trace.Tracer
}

func (s *tracedStore) ListThreads(ctx context.Context, prefix string) ([]domain.Thread, error) {
	ctx, span := s.tracer.Start(ctx, "store.ListThreads",
		trace.WithAttributes(attribute.String("thread.prefix", prefix)),
	)
	defer span.End()

	threads, err := s.inner.ListThreads(ctx, prefix)
	if err != nil {
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Int("thread.count", len(threads)))
	return threads, err
}

func (s *tracedStore) FindNodeByID(ctx context.Context, id string) (*domain.Node, error) {
	ctx, span := s.tracer.Start(ctx, "store.FindNodeByID",
		trace.WithAttributes(attribute.String("node.id", id)),
	)
	defer span.End()

	node, err := s.inner.FindNodeByID(ctx, id)
	if err != nil {
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Bool("node.found", node != nil))
	return node, err
}
