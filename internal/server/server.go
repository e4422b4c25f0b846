// Package server exposes the REST surface over the domain services.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	areadomain "github.com/trashmobeco/trashmob/internal/adoptablearea/domain"
	areagendomain "github.com/trashmobeco/trashmob/internal/areagen/domain"
	attendancedomain "github.com/trashmobeco/trashmob/internal/attendance/domain"
	"github.com/trashmobeco/trashmob/internal/config"
	eventdomain "github.com/trashmobeco/trashmob/internal/event/domain"
	metricsdomain "github.com/trashmobeco/trashmob/internal/metrics/domain"
	"github.com/trashmobeco/trashmob/internal/observability/logger"
	partnerdomain "github.com/trashmobeco/trashmob/internal/partner/domain"
	userdomain "github.com/trashmobeco/trashmob/internal/user/domain"
	waiverdomain "github.com/trashmobeco/trashmob/internal/waiver/domain"
)

type ServerParam struct {
	fx.In

	Config config.Config
	DB     *gorm.DB
	Log    *zap.Logger

	UserSvc       userdomain.Service
	PartnerSvc    partnerdomain.Service
	EventSvc      eventdomain.Service
	AttendanceSvc attendancedomain.Service
	MetricsSvc    metricsdomain.Service
	AreaSvc       areadomain.Service
	AreaGenSvc    areagendomain.Service
	Orchestrator  areagendomain.Orchestrator
	WaiverSvc     waiverdomain.Service
}

type Server struct {
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	engine *gin.Engine

	userSvc       userdomain.Service
	partnerSvc    partnerdomain.Service
	eventSvc      eventdomain.Service
	attendanceSvc attendancedomain.Service
	metricsSvc    metricsdomain.Service
	areaSvc       areadomain.Service
	areaGenSvc    areagendomain.Service
	orchestrator  areagendomain.Orchestrator
	waiverSvc     waiverdomain.Service
}

// NewEngine builds the gin engine with recovery, request logging, and the
// prometheus scrape endpoint.
func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return engine
}

func NewServer(p ServerParam, engine *gin.Engine) *Server {
	return &Server{
		cfg:    p.Config,
		db:     p.DB,
		log:    p.Log.Named("server"),
		engine: engine,

		userSvc:       p.UserSvc,
		partnerSvc:    p.PartnerSvc,
		eventSvc:      p.EventSvc,
		attendanceSvc: p.AttendanceSvc,
		metricsSvc:    p.MetricsSvc,
		areaSvc:       p.AreaSvc,
		areaGenSvc:    p.AreaGenSvc,
		orchestrator:  p.Orchestrator,
		waiverSvc:     p.WaiverSvc,
	}
}

// RegisterAPIRoutes mounts the REST endpoints.
func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/healthz", s.Health)

	api := s.engine.Group("/api")

	api.POST("/users", s.CreateUser)
	api.GET("/users/:id", s.GetUser)
	api.DELETE("/users/:id", s.DeleteUser)
	api.GET("/users/:id/impact", s.GetUserImpact)

	api.POST("/partners", s.CreatePartner)
	api.GET("/partners", s.ListPartners)
	api.GET("/partners/:id", s.GetPartner)
	api.GET("/partners/:id/areas", s.ListPartnerAreas)

	api.POST("/events", s.CreateEvent)
	api.GET("/events", s.ListEvents)
	api.GET("/events/:id", s.GetEvent)
	api.POST("/events/:id/attendees", s.RegisterAttendee)
	api.DELETE("/events/:id/attendees/:userId", s.UnregisterAttendee)

	api.POST("/events/:id/metrics", s.SubmitMetrics)
	api.GET("/events/:id/metrics/totals", s.GetEventTotals)
	api.GET("/events/:id/metrics/summary", s.GetPublicSummary)
	api.POST("/events/:id/metrics/approve-all", s.ApproveAllPending)
	api.POST("/metrics/:id/approve", s.ApproveSubmission)
	api.POST("/metrics/:id/reject", s.RejectSubmission)
	api.POST("/metrics/:id/adjust", s.AdjustSubmission)

	api.POST("/area-batches", s.StartBatch)
	api.GET("/area-batches/:id", s.GetBatch)
	api.POST("/area-batches/:id/cancel", s.CancelBatch)
	api.GET("/area-batches/:id/staged", s.ListStaged)
	api.POST("/area-batches/:id/staged/review-all", s.BulkReviewStaged)
	api.POST("/area-batches/:id/materialize", s.MaterializeBatch)
	api.POST("/staged-areas/:id/review", s.ReviewStaged)

	api.GET("/waivers/current", s.GetCurrentWaiver)
	api.POST("/waivers/accept", s.AcceptWaiver)
}

// Health reports liveness.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down http server")
			return srv.Shutdown(ctx)
		},
	})
}
