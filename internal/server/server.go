package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/salescommission/internal/accounting"
	"github.com/smallbiznis/salescommission/internal/authorization"
	"github.com/smallbiznis/salescommission/internal/commission"
	commissiondomain "github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/commission/export"
	"github.com/smallbiznis/salescommission/internal/config"
	"github.com/smallbiznis/salescommission/internal/lock"
	"github.com/smallbiznis/salescommission/internal/observability"
	obsmiddleware "github.com/smallbiznis/salescommission/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/salescommission/internal/observability/metrics"
	obstracing "github.com/smallbiznis/salescommission/internal/observability/tracing"
	"github.com/smallbiznis/salescommission/internal/product"
	productdomain "github.com/smallbiznis/salescommission/internal/product/domain"
	"github.com/smallbiznis/salescommission/internal/providers"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	lock.Module,
	accounting.Module,
	product.Module,
	providers.Module,
	commission.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
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
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http.server.failed", zap.Error(err))
				}
			}()
			log.Info("http.server.started", zap.String("addr", cfg.HTTPAddr))
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
	engine        *gin.Engine
	cfg           config.Config
	authzSvc      authorization.Service
	commissionSvc commissiondomain.Service
	exportSvc     export.Service
	productSvc    productdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	AuthzSvc      authorization.Service
	CommissionSvc commissiondomain.Service
	ExportSvc     export.Service
	ProductSvc    productdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		authzSvc:      p.AuthzSvc,
		commissionSvc: p.CommissionSvc,
		exportSvc:     p.ExportSvc,
		productSvc:    p.ProductSvc,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.ActorRequired())

	// -------- Commission --------
	commission := api.Group("/commission")
	{
		commission.POST("/sync",
			s.authorizeAction(authorization.ObjectCommissionSync, authorization.ActionCommissionSyncRun),
			s.RunCommissionSync)
		commission.GET("/sync-runs",
			s.authorizeAction(authorization.ObjectCommissionSync, authorization.ActionCommissionSyncView),
			s.ListSyncRuns)
		commission.GET("/lines",
			s.authorizeAction(authorization.ObjectCommissionLine, authorization.ActionCommissionLineView),
			s.ListCommissionLines)
		commission.GET("/report",
			s.authorizeAction(authorization.ObjectCommissionReport, authorization.ActionCommissionReportView),
			s.GetCommissionReport)
		commission.GET("/report/xlsx",
			s.authorizeAction(authorization.ObjectCommissionReport, authorization.ActionCommissionReportExport),
			s.ExportCommissionReportXLSX)
		commission.GET("/report/pdf",
			s.authorizeAction(authorization.ObjectCommissionReport, authorization.ActionCommissionReportExport),
			s.ExportCommissionReportPDF)
		commission.GET("/diagnostics",
			s.authorizeAction(authorization.ObjectDiagnostics, authorization.ActionDiagnosticsView),
			s.GetDiagnostics)
	}

	// -------- Product --------
	api.GET("/products",
		s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductView),
		s.ListProducts)
	api.POST("/products",
		s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductCreate),
		s.CreateProduct)
	api.GET("/products/:id",
		s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductView),
		s.GetProductByID)
	api.PUT("/products/:id/commission-rate",
		s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductRateUpdate),
		s.SetProductCommissionRate)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
