package metrics

import (
	"go.uber.org/fx"

	"github.com/trashmobeco/trashmob/internal/metrics/service"
)

var Module = fx.Module("metrics.service",
	fx.Provide(service.NewService),
)
