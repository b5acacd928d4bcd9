// Package otel configures OpenTelemetry tracing for wordmath processes.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/zephyrtronium/wordmath/internal/config"
)

// Config holds tracing settings. Tracing is on only when Enabled is set and
// Endpoint is not empty.
type Config struct {
	Enabled  bool   `env:"WORDMATH_OTEL_ENABLED" envDefault:"true"`
	Endpoint string `env:"WORDMATH_OTEL_ENDPOINT"`

	// SampleRatio is the fraction of root traces recorded. Child spans follow
	// their parent's decision.
	SampleRatio float64 `env:"WORDMATH_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// LoadConfig reads tracing settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether the settings are usable.
func (cfg Config) Validate() error {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return fmt.Errorf("otel sample ratio (%g) must be between 0 and 1", cfg.SampleRatio)
	}
	return nil
}

// Active reports whether Setup would install a tracer provider.
func (cfg Config) Active() bool {
	return cfg.Enabled && cfg.Endpoint != ""
}

// Setup installs a global tracer provider for serviceName as cfg describes.
// When cfg is not active, it installs nothing and returns a no-op shutdown.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func Setup(ctx context.Context, serviceName string, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if err := cfg.Validate(); err != nil {
		return noop, err
	}
	if !cfg.Active() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, fmt.Errorf("otel resource: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}
