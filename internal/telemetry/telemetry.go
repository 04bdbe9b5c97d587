// Package telemetry wires OpenTelemetry tracing and metrics for a single run.
// Metrics go through the OpenTelemetry Prometheus exporter into a private
// registry, which is written out in the node-exporter textfile format when
// the run ends.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/kwsong/biodigitalviz/internal/config"
)

const ServiceName = "thumbgrid"

type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry

	lastRun  prometheus.Gauge
	textfile string
}

func Setup(ctx context.Context, cfg config.TelemetryConfig, runID string) (*Providers, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("thumbgrid.run_id", runID),
	)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	switch cfg.TraceExporter {
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("error creating stdout trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	case "otlp":
		// Endpoint and headers come from the standard OTEL_EXPORTER_OTLP_* variables.
		exp, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("error creating otlp trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	case "", "none":
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.TraceExporter)
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("error creating prometheus exporter: %w", err)
	}

	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "thumbgrid_last_run_timestamp_seconds",
		Help: "Unix time at which the last thumbnail grid run finished.",
	})
	if err := registry.Register(lastRun); err != nil {
		return nil, fmt.Errorf("error registering run gauge: %w", err)
	}

	return &Providers{
		TracerProvider: sdktrace.NewTracerProvider(tpOpts...),
		MeterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter), sdkmetric.WithResource(res)),
		Registry:       registry,
		lastRun:        lastRun,
		textfile:       cfg.MetricsTextfile,
	}, nil
}

func (p *Providers) Tracer() trace.Tracer {
	return p.TracerProvider.Tracer(ServiceName)
}

func (p *Providers) Meter() metric.Meter {
	return p.MeterProvider.Meter(ServiceName)
}

// Shutdown flushes spans and writes the metrics textfile, if one is
// configured. Metrics are written before the meter provider shuts down so
// the final collection still sees every instrument.
func (p *Providers) Shutdown(ctx context.Context) error {
	p.lastRun.Set(float64(time.Now().Unix()))

	var errs []error
	if p.textfile != "" {
		if err := prometheus.WriteToTextfile(p.textfile, p.Registry); err != nil {
			errs = append(errs, fmt.Errorf("error writing metrics textfile: %w", err))
		}
	}
	if err := p.MeterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down meter provider: %w", err))
	}
	if err := p.TracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down tracer provider: %w", err))
	}
	return errors.Join(errs...)
}
