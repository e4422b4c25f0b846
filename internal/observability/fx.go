// Package observability wires logging, tracing, and metrics into the fx app.
package observability

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/trashmobeco/trashmob/internal/config"
	"github.com/trashmobeco/trashmob/internal/observability/logger"
	"github.com/trashmobeco/trashmob/internal/observability/metrics"
	"github.com/trashmobeco/trashmob/internal/observability/tracing"
)

var version = "dev"

var Module = fx.Module("observability",
	fx.Provide(logger.New),
	fx.Provide(func(cfg config.Config) *metrics.AppMetrics {
		return metrics.AppWithConfig(metrics.Config{
			ServiceName: "trashmob-api",
			Environment: cfg.Environment,
		})
	}),
	fx.Provide(func(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*sdktrace.TracerProvider, error) {
		return tracing.NewProvider(lc, tracing.FromAppConfig(cfg, version), log)
	}),
)
