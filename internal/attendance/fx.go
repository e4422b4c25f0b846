package attendance

import (
	"go.uber.org/fx"

	"github.com/trashmobeco/trashmob/internal/attendance/service"
)

var Module = fx.Module("attendance.service",
	fx.Provide(service.NewService),
)
