package telemetry

import (
	"context"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// InitTracer installs the global OTLP tracer provider and returns its
// shutdown hook. Tracing problems log and degrade; they never stop the
// service.
func InitTracer(serviceName string) func() {
	ctx := context.Background()

	endpoint, path, insecure := resolveOTLPEndpoint()

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithURLPath(path),
	}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		log.Printf("[telemetry] OTLP exporter unavailable, tracing disabled: %v", err)
		return func() {}
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		log.Printf("[telemetry] resource build failed, tracing disabled: %v", err)
		return func() {}
	}

	ratio := 1.0
	if raw := os.Getenv("OTEL_TRACES_SAMPLER_RATIO"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f >= 0 && f <= 1 {
			ratio = f
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(ratio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Printf("[telemetry] tracing initialized for service %s (sample ratio %.2f)", serviceName, ratio)

	return func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("[telemetry] tracer shutdown: %v", err)
		}
	}
}

// resolveOTLPEndpoint accepts either a full URL or a bare host:port in
// OTEL_EXPORTER_OTLP_TRACES_ENDPOINT.
func resolveOTLPEndpoint() (endpoint, path string, insecure bool) {
	endpoint, path, insecure = "localhost:4318", "/v1/traces", true

	raw := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	if raw == "" {
		return
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		endpoint = raw
		return
	}
	u, err := url.Parse(raw)
	if err != nil {
		return
	}
	if u.Host != "" {
		endpoint = u.Host
	}
	if u.Path != "" {
		path = u.Path
	}
	insecure = u.Scheme == "http"
	return
}
