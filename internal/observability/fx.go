package observability

import (
	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/observability/logger"
	"github.com/fieldforge/fieldforge/internal/observability/metrics"
	"github.com/fieldforge/fieldforge/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideLoggerConfig,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		metrics.New,
	),
	fx.Invoke(ensureTracingProvider),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

func provideLoggerConfig(cfg config.Config) logger.Config {
	return logger.Config{
		ServiceName:   cfg.AppName,
		Environment:   cfg.Environment,
		Version:       cfg.AppVersion,
		Level:         cfg.LogLevel,
		Format:        cfg.LogFormat,
		IncludeCaller: true,
	}
}

func provideTracingConfig(cfg config.Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.AppName,
		ServiceVersion:   cfg.AppVersion,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
	}
}
