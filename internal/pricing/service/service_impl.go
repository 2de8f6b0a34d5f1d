package service

import (
	"context"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
	"github.com/verifield/fieldpay/internal/clock"
	obscontext "github.com/verifield/fieldpay/internal/observability/context"
	obsmetrics "github.com/verifield/fieldpay/internal/observability/metrics"
	pricingdomain "github.com/verifield/fieldpay/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       pricingdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       pricingdomain.Repository
	obsMetrics *obsmetrics.Metrics

	current atomic.Pointer[pricingdomain.Config]
}

func New(p Params) pricingdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("pricing.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Current(ctx context.Context) pricingdomain.Config {
	if cfg := s.current.Load(); cfg != nil {
		return *cfg
	}

	stored, err := s.repo.FindLatest(ctx, s.db)
	if err != nil {
		// Pricing must stay available; run on the documented defaults.
		s.log.Warn("pricing config load failed, using defaults", zap.Error(err))
		return pricingdomain.Default()
	}
	if stored == nil {
		defaults := pricingdomain.Default()
		s.current.Store(&defaults)
		return defaults
	}

	s.current.Store(stored)
	if s.obsMetrics != nil {
		s.obsMetrics.RecordConfigReload(ctx, "store")
	}
	s.log.Info("pricing config loaded", zap.Int64("version", stored.Version))
	return *stored
}

func (s *Service) Upsert(ctx context.Context, req pricingdomain.UpsertRequest) (*pricingdomain.Config, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	latest, err := s.repo.FindLatest(ctx, s.db)
	if err != nil {
		return nil, err
	}
	version := int64(1)
	if latest != nil {
		version = latest.Version + 1
	}

	cfg := &pricingdomain.Config{
		ID:               s.genID.Generate(),
		Version:          version,
		Enabled:          req.Enabled,
		QualityThreshold: req.QualityThreshold,
		QualityWeight:    req.QualityWeight,
		DemandThreshold:  req.DemandThreshold,
		DemandWeight:     req.DemandWeight,
		DistanceMaxKm:    req.DistanceMaxKm,
		DistanceWeight:   req.DistanceWeight,
		CreatedBy:        obscontext.ActorFromContext(ctx),
		CreatedAt:        s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, cfg); err != nil {
		return nil, err
	}

	// Whole-value replace; readers never observe a half-updated policy.
	s.current.Store(cfg)
	if s.obsMetrics != nil {
		s.obsMetrics.RecordConfigReload(ctx, "upsert")
	}
	s.log.Info("pricing config updated", zap.Int64("version", version), zap.Bool("enabled", cfg.Enabled))
	return cfg, nil
}

func (s *Service) Invalidate() {
	s.current.Store(nil)
}

func validate(req pricingdomain.UpsertRequest) error {
	if req.QualityThreshold < 0 || req.QualityThreshold > 1 ||
		req.DemandThreshold < 0 || req.DemandThreshold > 1 {
		return pricingdomain.ErrInvalidPricingConfig
	}
	if req.QualityWeight < 0 || req.DemandWeight < 0 || req.DistanceWeight < 0 {
		return pricingdomain.ErrInvalidPricingConfig
	}
	if req.DistanceMaxKm <= 0 {
		return pricingdomain.ErrInvalidPricingConfig
	}
	return nil
}
