package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
)

// ErrTelemetryNotConfigured is returned if no OTLP endpoint is set in env
var ErrTelemetryNotConfigured = errors.New("telemetry is not configured")

// initOTLP selects the exporter protocol by the endpoint set in OTEL_EXPORTER_OTLP_* env
func initOTLP(serviceName string) (*tracesdk.TracerProvider, error) {
	var (
		ctx = context.TODO()
		exp *otlptrace.Exporter
		err error
	)
	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") +
		os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")

	switch {
	case protocol == "grpc" ||
		strings.Contains(otlpEndpoint, "4317") ||
		strings.Contains(otlpEndpoint, "grpc"):
		exp, err = otlptracegrpc.New(ctx)
	case len(otlpEndpoint) != 0:
		exp, err = otlptracehttp.New(ctx)
	default:
		log.Debug().Msg(ErrTelemetryNotConfigured.Error())
		return nil, ErrTelemetryNotConfigured
	}
	if err != nil {
		log.Err(err).Msg("could not create exporter")
		return nil, err
	}
	log.Debug().Str("endpoint", otlpEndpoint).Msg("telemetry configured OTEL_EXPORTER_OTLP")

	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(serviceName),
		attribute.String("buildTag", buildTag),
		attribute.String("buildTime", buildTime),
		attribute.String("runtime", "golang"),
	}
	return tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attrs...)),
	), nil
}
