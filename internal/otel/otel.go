// Package otel exports rentctl's API client spans over OTLP/HTTP.
package otel

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Tracing names the service and where its spans go.
type Tracing struct {
	Service string
	Version string
	// Endpoint is a collector URL such as http://localhost:4318, or a bare
	// host:port that is reached over plain HTTP. Empty disables tracing.
	Endpoint string
}

// Init installs the global tracer provider and trace-context propagator
// when t.Endpoint is set. The returned func flushes pending spans.
func Init(ctx context.Context, t Tracing) (func(context.Context) error, error) {
	if t.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	opts, err := exporterOptions(t.Endpoint)
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(t.Service)}
	if t.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(t.Version))
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attrs...)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("flush spans: %w", err)
		}
		return nil
	}, nil
}

func exporterOptions(endpoint string) ([]otlptracehttp.Option, error) {
	if !strings.Contains(endpoint, "://") {
		return []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithInsecure(),
		}, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse otlp endpoint %q: %w", endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("otlp endpoint %q: want an http(s) URL or host:port", endpoint)
	}
	// The URL's scheme decides TLS and its path overrides /v1/traces.
	return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}, nil
}
