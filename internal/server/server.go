package server

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/sensorlog/internal/account"
	accountdomain "github.com/smallbiznis/sensorlog/internal/account/domain"
	"github.com/smallbiznis/sensorlog/internal/account/session"
	"github.com/smallbiznis/sensorlog/internal/audit"
	auditdomain "github.com/smallbiznis/sensorlog/internal/audit/domain"
	"github.com/smallbiznis/sensorlog/internal/clock"
	"github.com/smallbiznis/sensorlog/internal/config"
	"github.com/smallbiznis/sensorlog/internal/device"
	devicedomain "github.com/smallbiznis/sensorlog/internal/device/domain"
	"github.com/smallbiznis/sensorlog/internal/measurement"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"github.com/smallbiznis/sensorlog/internal/observability"
	obsmiddleware "github.com/smallbiznis/sensorlog/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/sensorlog/internal/observability/metrics"
	obstracing "github.com/smallbiznis/sensorlog/internal/observability/tracing"
	"github.com/smallbiznis/sensorlog/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	account.Module,
	measurement.Module,
	ratelimit.Module,
	device.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	sessions       *session.Manager
	accountSvc     accountdomain.Service
	measurementSvc measurementdomain.Service
	deviceSvc      devicedomain.Service
	auditSvc       auditdomain.Service
	ingestLimiter  *ratelimit.IngestLimiter
	obsMetrics     *obsmetrics.Metrics
	clock          clockwork.Clock
	loc            *time.Location
	pages          *template.Template
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Sessions       *session.Manager
	AccountSvc     accountdomain.Service
	MeasurementSvc measurementdomain.Service
	DeviceSvc      devicedomain.Service
	AuditSvc       auditdomain.Service      `optional:"true"`
	IngestLimiter  *ratelimit.IngestLimiter `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics      `optional:"true"`
	Clock          clockwork.Clock          `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		sessions:       p.Sessions,
		accountSvc:     p.AccountSvc,
		measurementSvc: p.MeasurementSvc,
		deviceSvc:      p.DeviceSvc,
		auditSvc:       p.AuditSvc,
		ingestLimiter:  p.IngestLimiter,
		obsMetrics:     p.ObsMetrics,
		clock:          clock.OrReal(p.Clock),
		loc:            p.Cfg.Location(),
		pages:          parsePages(),
	}

	svc.engine.Use(svc.SessionIdentity())

	svc.registerPageRoutes()
	svc.registerAPIRoutes()
	svc.registerIngestRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPageRoutes() {
	s.engine.GET("/", s.Index)

	measurements := s.engine.Group("/measurements")
	{
		measurements.POST("", s.PageAuthRequired(), s.CreateMeasurementPage)
		measurements.POST("/import", s.ImportMeasurementsPage)
		measurements.POST("/:id", s.PageAuthRequired(), s.UpdateMeasurementPage)
		measurements.POST("/:id/delete", s.PageAuthRequired(), s.DeleteMeasurementPage)
	}

	s.engine.POST("/device/fetch", s.PageAuthRequired(), s.FetchDevicePage)

	accounts := s.engine.Group("/accounts")
	{
		accounts.POST("/register", s.RegisterPage)
		accounts.POST("/login", s.LoginPage)
		accounts.POST("/logout", s.LogoutPage)
		accounts.POST("/delete", s.DeleteAccountPage)
	}
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.APIAuthRequired())

	api.GET("/measurements", s.ListMeasurements)
	api.POST("/measurements", s.CreateMeasurement)
	api.GET("/measurements/:id", s.GetMeasurement)
	api.PUT("/measurements/:id", s.UpdateMeasurement)
	api.DELETE("/measurements/:id", s.DeleteMeasurement)

	api.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerIngestRoutes() {
	s.engine.POST("/ingest", s.IngestToken(), s.IngestRateLimit(), s.Ingest)
}
