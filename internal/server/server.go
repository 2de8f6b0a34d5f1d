package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/verifield/fieldpay/internal/config"
	"github.com/verifield/fieldpay/internal/observability"
	obsmiddleware "github.com/verifield/fieldpay/internal/observability/logger"
	obsmetrics "github.com/verifield/fieldpay/internal/observability/metrics"
	obstracing "github.com/verifield/fieldpay/internal/observability/tracing"
	"github.com/verifield/fieldpay/internal/payout"
	payoutdomain "github.com/verifield/fieldpay/internal/payout/domain"
	"github.com/verifield/fieldpay/internal/pricing"
	pricingdomain "github.com/verifield/fieldpay/internal/pricing/domain"
	"github.com/verifield/fieldpay/internal/ratecard"
	ratecarddomain "github.com/verifield/fieldpay/internal/ratecard/domain"
	"github.com/verifield/fieldpay/internal/ratelimit"
	"github.com/verifield/fieldpay/internal/slab"
	"github.com/verifield/fieldpay/internal/tier"
	tierdomain "github.com/verifield/fieldpay/internal/tier/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	slab.Module,
	tier.Module,
	ratecard.Module,
	pricing.Module,
	payout.Module,
	ratelimit.Module,
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

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	tierSvc    tierdomain.Service
	rateCards  ratecarddomain.Service
	pricingSvc pricingdomain.Service
	payoutSvc  payoutdomain.Service
	slabs      *slab.Provider
	bucket     *ratelimit.TokenBucket
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	TierSvc    tierdomain.Service
	RateCards  ratecarddomain.Service
	PricingSvc pricingdomain.Service
	PayoutSvc  payoutdomain.Service
	Slabs      *slab.Provider
	Bucket     *ratelimit.TokenBucket `optional:"true"`
	ObsMetrics *obsmetrics.Metrics    `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		tierSvc:    p.TierSvc,
		rateCards:  p.RateCards,
		pricingSvc: p.PricingSvc,
		payoutSvc:  p.PayoutSvc,
		slabs:      p.Slabs,
		bucket:     p.Bucket,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/payouts/calculate", s.throttle(), s.CalculatePayout)

	api.GET("/tiers", s.ListTiers)
	api.GET("/tiers/resolve/:pincode", s.ResolveTier)
	api.POST("/tiers/reload", s.ReloadTiers)
	api.POST("/tiers/:tier/pincodes", s.AssignPincodes)
	api.DELETE("/pincodes/:pincode", s.RemovePincode)

	api.GET("/rate-cards", s.ListRateCards)
	api.POST("/rate-cards", s.CreateRateCard)
	api.GET("/rate-cards/:id", s.GetRateCard)
	api.PATCH("/rate-cards/:id", s.UpdateRateCard)
	api.DELETE("/rate-cards/:id", s.DeactivateRateCard)

	api.GET("/pricing/config", s.GetPricingConfig)
	api.PUT("/pricing/config", s.UpdatePricingConfig)

	api.GET("/slabs", s.ListSlabs)
}
