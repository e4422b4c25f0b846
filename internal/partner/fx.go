package partner

import (
	"go.uber.org/fx"

	"github.com/trashmobeco/trashmob/internal/partner/service"
)

var Module = fx.Module("partner.service",
	fx.Provide(service.NewService),
)
