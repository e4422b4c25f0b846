package areagen

import (
	"go.uber.org/fx"

	areagendomain "github.com/trashmobeco/trashmob/internal/areagen/domain"
	"github.com/trashmobeco/trashmob/internal/areagen/osm"
	"github.com/trashmobeco/trashmob/internal/areagen/service"
)

var Module = fx.Module("areagen.service",
	fx.Provide(func(client *osm.Client) areagendomain.Searcher { return client }),
	fx.Provide(osm.NewClient),
	fx.Provide(service.NewService),
	fx.Provide(service.NewOrchestrator),
)
