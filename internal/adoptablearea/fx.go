package adoptablearea

import (
	"go.uber.org/fx"

	"github.com/trashmobeco/trashmob/internal/adoptablearea/service"
)

var Module = fx.Module("adoptablearea.service",
	fx.Provide(service.NewService),
)
