package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
	"github.com/verifield/fieldpay/internal/clock"
	"github.com/verifield/fieldpay/internal/config"
	obscontext "github.com/verifield/fieldpay/internal/observability/context"
	obsmetrics "github.com/verifield/fieldpay/internal/observability/metrics"
	tierdomain "github.com/verifield/fieldpay/internal/tier/domain"
	"github.com/verifield/fieldpay/pkg/db"
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
	Repo       tierdomain.Repository
	Payout     *config.PayoutConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       tierdomain.Repository
	payout     *config.PayoutConfigHolder
	obsMetrics *obsmetrics.Metrics

	snapshot atomic.Pointer[map[string]tierdomain.Tier]
	loadMu   sync.Mutex
}

func New(p Params) tierdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("tier.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		payout:     p.Payout,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Resolve(ctx context.Context, pincode string) (tierdomain.Tier, bool) {
	pincode = strings.TrimSpace(pincode)

	mapping := s.snapshot.Load()
	if mapping == nil {
		if err := s.Reload(ctx); err != nil {
			s.log.Warn("tier snapshot load failed, using default tier", zap.Error(err))
			s.recordFallback(ctx)
			return tierdomain.DefaultTier, false
		}
		mapping = s.snapshot.Load()
	}

	if tier, ok := (*mapping)[pincode]; ok {
		return tier, true
	}

	s.recordFallback(ctx)
	return tierdomain.DefaultTier, false
}

// Reload rebuilds the in-memory snapshot from storage. Tiers are walked in
// resolution order so a pincode stored under two tiers keeps the faster one.
func (s *Service) Reload(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	mapping := make(map[string]tierdomain.Tier)
	for _, tier := range tierdomain.Order() {
		rows, err := s.repo.ListByTier(ctx, s.db, tier)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if _, exists := mapping[row.Pincode]; exists {
				continue
			}
			mapping[row.Pincode] = tier
		}
	}

	s.snapshot.Store(&mapping)
	s.log.Info("tier snapshot reloaded", zap.Int("pincodes", len(mapping)))
	return nil
}

func (s *Service) AssignPincodes(ctx context.Context, req tierdomain.AssignRequest) (*tierdomain.TierSummary, error) {
	tier := tierdomain.Tier(strings.TrimSpace(req.Tier))
	if !tier.Valid() {
		return nil, tierdomain.ErrInvalidTier
	}

	pincodes := make([]string, 0, len(req.Pincodes))
	for _, pincode := range req.Pincodes {
		pincode = strings.TrimSpace(pincode)
		if pincode == "" {
			return nil, tierdomain.ErrInvalidPincode
		}
		pincodes = append(pincodes, pincode)
	}
	if len(pincodes) == 0 {
		return nil, tierdomain.ErrInvalidPincode
	}

	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pincode := range pincodes {
			assignment := &tierdomain.TierPincode{
				ID:        s.genID.Generate(),
				Tier:      string(tier),
				Pincode:   pincode,
				CreatedBy: actorFromContext(ctx),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.repo.Insert(ctx, tx, assignment); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return tierdomain.ErrPincodeTaken
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByTier(ctx, s.db)
	if err != nil {
		return nil, err
	}

	return &tierdomain.TierSummary{
		Tier:       tier,
		Multiplier: s.payout.Get().TierMultiplier(string(tier)),
		Pincodes:   counts[tier],
	}, nil
}

func (s *Service) RemovePincode(ctx context.Context, pincode string) error {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return tierdomain.ErrInvalidPincode
	}

	affected, err := s.repo.DeleteByPincode(ctx, s.db, pincode)
	if err != nil {
		return err
	}
	if affected == 0 {
		return tierdomain.ErrInvalidPincode
	}

	return s.Reload(ctx)
}

func (s *Service) List(ctx context.Context) ([]tierdomain.TierSummary, error) {
	counts, err := s.repo.CountByTier(ctx, s.db)
	if err != nil {
		return nil, err
	}

	payout := s.payout.Get()
	summaries := make([]tierdomain.TierSummary, 0, len(tierdomain.Order()))
	for _, tier := range tierdomain.Order() {
		summaries = append(summaries, tierdomain.TierSummary{
			Tier:       tier,
			Multiplier: payout.TierMultiplier(string(tier)),
			Pincodes:   counts[tier],
		})
	}
	return summaries, nil
}

func (s *Service) recordFallback(ctx context.Context) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordTierFallback(ctx)
	}
}

func actorFromContext(ctx context.Context) string {
	return obscontext.ActorFromContext(ctx)
}
