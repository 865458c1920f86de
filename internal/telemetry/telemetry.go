package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config describes the process being traced.
type Config struct {
	ServiceName string
	Version     string
	// ServerURL is the agency API the CLI talks to.
	ServerURL string
}

// Provider owns the exporters started by Start.
type Provider struct {
	flushers []flusher
}

type flusher struct {
	name     string
	shutdown func(context.Context) error
}

// Start exports API spans and request metrics over OTLP. Exporter settings
// come from the standard OTEL_EXPORTER_OTLP_* environment variables. A CLI
// invocation is short, so nothing is exported on a timer; Shutdown flushes
// everything recorded before the process exits.
func Start(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
			attribute.String("agencyctl.server", cfg.ServerURL),
		),
		resource.WithFromEnv(),
		resource.WithOSType(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	p := &Provider{}

	traceExporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create trace exporter, continuing without tracing")
	} else {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		)
		otel.SetTracerProvider(tp)
		p.flushers = append(p.flushers, flusher{name: "trace", shutdown: tp.Shutdown})
	}

	metricExporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create metric exporter, continuing without metrics")
	} else {
		// collected once, on shutdown
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res))
		otel.SetMeterProvider(mp)
		p.flushers = append(p.flushers, flusher{name: "metric", shutdown: exportOnShutdown(reader, metricExporter, mp)})
	}

	if len(p.flushers) == 0 {
		return nil, errors.New("no telemetry exporter could be created")
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Debug().Str("service", cfg.ServiceName).Str("server", cfg.ServerURL).Msg("telemetry started")

	return p, nil
}

// exportOnShutdown collects the manual reader once and pushes the result
// before shutting the meter provider down.
func exportOnShutdown(reader *sdkmetric.ManualReader, exp sdkmetric.Exporter, mp *sdkmetric.MeterProvider) func(context.Context) error {
	return func(ctx context.Context) error {
		var rm metricdata.ResourceMetrics
		err := reader.Collect(ctx, &rm)
		if err == nil {
			err = exp.Export(ctx, &rm)
		}
		return errors.Join(err, exp.Shutdown(ctx), mp.Shutdown(ctx))
	}
}

// Shutdown flushes every exporter and reports all failures.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, f := range p.flushers {
		if err := f.shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s shutdown: %w", f.name, err))
		}
	}
	return errors.Join(errs...)
}
