package telemetry

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Exporter string

const (
	ExporterNone   Exporter = "none"
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

func ParseExporter(v string) (Exporter, error) {
	switch e := Exporter(strings.ToLower(strings.TrimSpace(v))); e {
	case "", ExporterNone:
		return ExporterNone, nil
	case ExporterStdout, ExporterOTLP:
		return e, nil
	default:
		return ExporterNone, fmt.Errorf("unknown tracing exporter %q", v)
	}
}

type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider for the chosen exporter. With
// ExporterNone the global no-op provider is left in place. The otlp
// exporter reads the standard OTEL_EXPORTER_OTLP_* variables. out is only
// used by the stdout exporter.
func Setup(ctx context.Context, exp Exporter, serviceName string, out io.Writer) (ShutdownFunc, error) {
	var (
		spanExp sdktrace.SpanExporter
		err     error
	)
	switch exp {
	case ExporterNone, "":
		return func(context.Context) error { return nil }, nil
	case ExporterStdout:
		spanExp, err = stdouttrace.New(stdouttrace.WithWriter(out))
	case ExporterOTLP:
		spanExp, err = otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", exp)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", exp, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExp),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}
