package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/verifield/fieldpay/internal/cache"
	"github.com/verifield/fieldpay/internal/clock"
	obscontext "github.com/verifield/fieldpay/internal/observability/context"
	obsmetrics "github.com/verifield/fieldpay/internal/observability/metrics"
	ratecarddomain "github.com/verifield/fieldpay/internal/ratecard/domain"
	"github.com/verifield/fieldpay/internal/ratelimit"
	"github.com/verifield/fieldpay/internal/slab"
	tierdomain "github.com/verifield/fieldpay/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lookupCacheTTL = 30 * time.Second
	scopeLockTTL   = 10 * time.Second
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       ratecarddomain.Repository
	Slabs      *slab.Provider
	Locker     *ratelimit.Locker   `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       ratecarddomain.Repository
	slabs      *slab.Provider
	locker     *ratelimit.Locker
	obsMetrics *obsmetrics.Metrics

	lookups cache.Cache[string, *ratecarddomain.RateCard]
}

func New(p Params) ratecarddomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ratecard.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		slabs:      p.Slabs,
		locker:     p.Locker,
		obsMetrics: p.ObsMetrics,
		lookups:    cache.NewTTLCache[string, *ratecarddomain.RateCard](),
	}
}

func (s *Service) Create(ctx context.Context, req ratecarddomain.CreateRequest) (*ratecarddomain.RateCard, error) {
	tier := strings.TrimSpace(req.Tier)
	if !tierdomain.Tier(tier).Valid() {
		return nil, ratecarddomain.ErrInvalidTier
	}
	slabKey := strings.TrimSpace(req.Slab)
	if _, err := s.slabs.Catalog().Lookup(slabKey); err != nil {
		return nil, ratecarddomain.ErrInvalidSlab
	}
	if req.BaseRate <= 0 || req.TravelAllowance < 0 || req.Bonus < 0 {
		return nil, ratecarddomain.ErrInvalidRate
	}

	release, ok, err := s.locker.Acquire(ctx, scopeLockKey(tier, slabKey, req.ClientID), scopeLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ratecarddomain.ErrScopeLocked
	}
	defer release()

	actor := obscontext.ActorFromContext(ctx)
	now := s.clock.Now()
	card := &ratecarddomain.RateCard{
		ID:              s.genID.Generate(),
		Tier:            tier,
		Slab:            slabKey,
		ClientID:        req.ClientID,
		BaseRate:        req.BaseRate,
		TravelAllowance: req.TravelAllowance,
		Bonus:           req.Bonus,
		Active:          true,
		Metadata:        req.Metadata,
		CreatedBy:       actor,
		UpdatedBy:       actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// A scope carries at most one active card, so the predecessor retires in
	// the same transaction that inserts its replacement.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeactivateScope(ctx, tx, tier, slabKey, req.ClientID, actor); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, card)
	})
	if err != nil {
		return nil, err
	}

	s.lookups.Purge()
	s.log.Info("rate card created",
		zap.Int64("id", card.ID.Int64()),
		zap.String("tier", tier),
		zap.String("slab", slabKey),
		zap.Float64("base_rate", card.BaseRate))
	return card, nil
}

func (s *Service) List(ctx context.Context, filter ratecarddomain.ListFilter) ([]ratecarddomain.RateCard, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*ratecarddomain.RateCard, error) {
	card, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ratecarddomain.ErrRateCardNotFound
	}
	return card, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req ratecarddomain.UpdateRequest) (*ratecarddomain.RateCard, error) {
	card, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !card.Active {
		return nil, ratecarddomain.ErrRateCardInactive
	}

	if req.BaseRate != nil {
		if *req.BaseRate <= 0 {
			return nil, ratecarddomain.ErrInvalidRate
		}
		card.BaseRate = *req.BaseRate
	}
	if req.TravelAllowance != nil {
		if *req.TravelAllowance < 0 {
			return nil, ratecarddomain.ErrInvalidRate
		}
		card.TravelAllowance = *req.TravelAllowance
	}
	if req.Bonus != nil {
		if *req.Bonus < 0 {
			return nil, ratecarddomain.ErrInvalidRate
		}
		card.Bonus = *req.Bonus
	}
	if req.Metadata != nil {
		card.Metadata = req.Metadata
	}
	card.UpdatedBy = obscontext.ActorFromContext(ctx)
	card.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, card); err != nil {
		return nil, err
	}

	s.lookups.Purge()
	return card, nil
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	card, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !card.Active {
		return ratecarddomain.ErrRateCardInactive
	}

	card.Active = false
	card.UpdatedBy = obscontext.ActorFromContext(ctx)
	card.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, card); err != nil {
		return err
	}

	s.lookups.Purge()
	s.log.Info("rate card deactivated", zap.Int64("id", id.Int64()))
	return nil
}

func (s *Service) Lookup(ctx context.Context, tier, slabKey string, clientID *snowflake.ID) (*ratecarddomain.RateCard, error) {
	key := scopeLockKey(tier, slabKey, clientID)
	if card, ok := s.lookups.Get(key); ok {
		return card, nil
	}

	card, err := s.repo.FindActive(ctx, s.db, tier, slabKey, clientID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateCardMiss(ctx, tier, slabKey)
		}
		return nil, ratecarddomain.ErrNoActiveRateCard
	}

	s.lookups.Set(key, card, lookupCacheTTL)
	return card, nil
}

func scopeLockKey(tier, slab string, clientID *snowflake.ID) string {
	if clientID != nil {
		return fmt.Sprintf("rate-card:%s:%s:%d", tier, slab, clientID.Int64())
	}
	return fmt.Sprintf("rate-card:%s:%s:global", tier, slab)
}
