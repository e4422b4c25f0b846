package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/trashmobeco/trashmob/internal/adoptablearea"
	"github.com/trashmobeco/trashmob/internal/areagen"
	"github.com/trashmobeco/trashmob/internal/attendance"
	"github.com/trashmobeco/trashmob/internal/clock"
	"github.com/trashmobeco/trashmob/internal/config"
	"github.com/trashmobeco/trashmob/internal/event"
	"github.com/trashmobeco/trashmob/internal/events"
	"github.com/trashmobeco/trashmob/internal/metrics"
	"github.com/trashmobeco/trashmob/internal/migration"
	"github.com/trashmobeco/trashmob/internal/observability"
	"github.com/trashmobeco/trashmob/internal/partner"
	"github.com/trashmobeco/trashmob/internal/seed"
	"github.com/trashmobeco/trashmob/internal/server"
	"github.com/trashmobeco/trashmob/internal/user"
	"github.com/trashmobeco/trashmob/internal/waiver"
	"github.com/trashmobeco/trashmob/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		events.Module,
		user.Module,
		partner.Module,
		event.Module,
		attendance.Module,
		adoptablearea.Module,
		metrics.Module,
		areagen.Module,
		waiver.Module,

		fx.Invoke(RunSchema),

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func RunSchema(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		return err
	}
	return seed.EnsureDefaults(gdb)
}
