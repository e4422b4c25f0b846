package event

import (
	"go.uber.org/fx"

	"github.com/trashmobeco/trashmob/internal/event/service"
)

var Module = fx.Module("event.service",
	fx.Provide(service.NewService),
)
