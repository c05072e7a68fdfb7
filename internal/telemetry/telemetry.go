// Package telemetry exports nd metrics and log events over OTLP/HTTP.
//
// Telemetry is off unless ND_OTEL_METRICS_URL is set. When it is off the
// global OTel providers stay no-op and every Record* helper is free.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Environment variables read by [ConfigFromEnv].
const (
	EnvMetricsURL = "ND_OTEL_METRICS_URL"
	EnvLogsURL    = "ND_OTEL_LOGS_URL"
	EnvActor      = "ND_ACTOR"
)

// Config selects the OTLP endpoints. An empty MetricsURL disables telemetry.
type Config struct {
	MetricsURL  string
	LogsURL     string
	ServiceName string
	Workspace   string
}

// Enabled reports whether Init will install real providers.
func (c Config) Enabled() bool { return c.MetricsURL != "" }

// ConfigFromEnv reads the endpoint URLs from the environment.
func ConfigFromEnv(workspace string) Config {
	return Config{
		MetricsURL:  os.Getenv(EnvMetricsURL),
		LogsURL:     os.Getenv(EnvLogsURL),
		ServiceName: "nd",
		Workspace:   workspace,
	}
}

// resourceAttrs builds the resource labels attached to every export.
func resourceAttrs(cfg Config) []attribute.KeyValue {
	name := cfg.ServiceName
	if name == "" {
		name = "nd"
	}
	attrs := []attribute.KeyValue{attribute.String("service.name", name)}
	if cfg.Workspace != "" {
		attrs = append(attrs, attribute.String("nd.workspace", cfg.Workspace))
	}
	if v := os.Getenv(EnvActor); v != "" {
		attrs = append(attrs, attribute.String("nd.actor", v))
	}
	return attrs
}

// Init installs global meter and logger providers exporting to cfg's
// endpoints and registers the recorder instruments. The returned shutdown
// flushes pending data. When cfg is disabled Init does nothing and
// shutdown is a no-op.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled() {
		return noop, nil
	}
	res := resource.NewSchemaless(resourceAttrs(cfg)...)

	mexp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(cfg.MetricsURL))
	if err != nil {
		return noop, fmt.Errorf("creating metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(mexp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	shutdowns := []func(context.Context) error{mp.Shutdown}

	if cfg.LogsURL != "" {
		lexp, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(cfg.LogsURL))
		if err != nil {
			_ = mp.Shutdown(ctx)
			return noop, fmt.Errorf("creating log exporter: %w", err)
		}
		lp := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(lexp)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(lp)
		shutdowns = append(shutdowns, lp.Shutdown)
	}

	initInstruments()
	return func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}, nil
}

// String renders cfg for debug logs.
func (c Config) String() string {
	if !c.Enabled() {
		return "telemetry disabled"
	}
	parts := []string{"metrics=" + c.MetricsURL}
	if c.LogsURL != "" {
		parts = append(parts, "logs="+c.LogsURL)
	}
	return strings.Join(parts, " ")
}
