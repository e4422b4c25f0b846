package waiver

import (
	"go.uber.org/fx"

	"github.com/trashmobeco/trashmob/internal/waiver/service"
)

var Module = fx.Module("waiver.service",
	fx.Provide(service.NewService),
)
