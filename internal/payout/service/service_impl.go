package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/verifield/fieldpay/internal/config"
	obsmetrics "github.com/verifield/fieldpay/internal/observability/metrics"
	payoutdomain "github.com/verifield/fieldpay/internal/payout/domain"
	pricingdomain "github.com/verifield/fieldpay/internal/pricing/domain"
	ratecarddomain "github.com/verifield/fieldpay/internal/ratecard/domain"
	"github.com/verifield/fieldpay/internal/slab"
	tierdomain "github.com/verifield/fieldpay/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Tiers      tierdomain.Service
	RateCards  ratecarddomain.Service
	Pricing    pricingdomain.Service
	Slabs      *slab.Provider
	Payout     *config.PayoutConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	tiers      tierdomain.Service
	rateCards  ratecarddomain.Service
	pricing    pricingdomain.Service
	slabs      *slab.Provider
	payout     *config.PayoutConfigHolder
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) payoutdomain.Service {
	return &Service{
		log:        p.Log.Named("payout.service"),
		tiers:      p.Tiers,
		rateCards:  p.RateCards,
		pricing:    p.Pricing,
		slabs:      p.Slabs,
		payout:     p.Payout,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Calculate(ctx context.Context, req payoutdomain.Request) (*payoutdomain.Result, error) {
	pincode := strings.TrimSpace(req.Pincode)
	if pincode == "" {
		return nil, payoutdomain.ErrMissingPincode
	}
	if req.BaseRateOverride != nil && *req.BaseRateOverride <= 0 {
		return nil, payoutdomain.ErrInvalidAmount
	}

	catalog := s.slabs.Catalog()
	slabDef, err := s.resolveSlab(catalog, req)
	if err != nil {
		return nil, err
	}

	tier, _ := s.tiers.Resolve(ctx, pincode)

	card, err := s.rateCards.Lookup(ctx, string(tier), slabDef.Key, req.ClientID)
	if err != nil {
		return nil, err
	}

	base := card.BaseRate
	if req.BaseRateOverride != nil {
		base = *req.BaseRateOverride
	}

	// Multipliers compose sequentially on the running rate, not against the
	// original base.
	rate := base
	tierMult := s.payout.Get().TierMultiplier(string(tier))
	rate *= tierMult
	rate *= slabDef.SpeedMultiplier

	adjustments := make([]string, 0, 4)
	composite := 1.0
	cfg := s.pricing.Current(ctx)
	if cfg.Enabled {
		composite = s.compositeMultiplier(cfg, req, &adjustments)
		rate *= composite
	}

	travel := card.TravelAllowance

	bonus := card.Bonus
	if slabDef.BonusPercent > 0 {
		slabBonus := rate * slabDef.BonusPercent
		bonus += slabBonus
		adjustments = append(adjustments,
			fmt.Sprintf("slab bonus %.0f%% of rate: +%.2f", slabDef.BonusPercent*100, slabBonus))
	}

	rate = round2(rate)
	bonus = round2(bonus)
	total := round2(rate + travel + bonus)

	result := &payoutdomain.Result{
		BaseRate:        rate,
		TravelAllowance: travel,
		Bonus:           bonus,
		TotalRate:       total,
		Breakdown: payoutdomain.Breakdown{
			PincodeTier:    string(tier),
			CompletionSlab: slabDef.Key,
			BaseCalculation: fmt.Sprintf("%.2f x %.4f = %.2f",
				base, tierMult*slabDef.SpeedMultiplier*composite, rate),
			Adjustments: adjustments,
		},
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordCalculation(ctx, string(tier), slabDef.Key)
	}
	s.log.Debug("payout calculated",
		zap.String("pincode", pincode),
		zap.String("tier", string(tier)),
		zap.String("slab", slabDef.Key),
		zap.Float64("total", total))
	return result, nil
}

func (s *Service) resolveSlab(catalog *slab.Catalog, req payoutdomain.Request) (slab.Definition, error) {
	key := strings.TrimSpace(req.Slab)
	if key != "" {
		def, err := catalog.Lookup(key)
		if err != nil {
			return slab.Definition{}, ratecarddomain.ErrInvalidSlab
		}
		return def, nil
	}
	if req.RequestedHours != nil {
		return catalog.Resolve(*req.RequestedHours), nil
	}
	return slab.Definition{}, payoutdomain.ErrMissingSlab
}

// compositeMultiplier folds the dynamic factors into one additive multiplier.
// Below-threshold quality and demand contribute nothing; distance past the
// cap contributes nothing. Applied factors are appended in quality, demand,
// distance order.
func (s *Service) compositeMultiplier(cfg pricingdomain.Config, req payoutdomain.Request, adjustments *[]string) float64 {
	composite := 1.0

	if req.QualityScore != nil && *req.QualityScore >= cfg.QualityThreshold {
		term := (*req.QualityScore - cfg.QualityThreshold) * cfg.QualityWeight
		composite += term
		*adjustments = append(*adjustments,
			fmt.Sprintf("quality %.2f >= %.2f: +%.4f", *req.QualityScore, cfg.QualityThreshold, term))
	}

	if req.DemandLevel != nil && *req.DemandLevel >= cfg.DemandThreshold {
		term := (*req.DemandLevel - cfg.DemandThreshold) * cfg.DemandWeight
		composite += term
		*adjustments = append(*adjustments,
			fmt.Sprintf("demand %.2f >= %.2f: +%.4f", *req.DemandLevel, cfg.DemandThreshold, term))
	}

	if req.DistanceKm != nil && *req.DistanceKm <= cfg.DistanceMaxKm {
		term := (1 - *req.DistanceKm/cfg.DistanceMaxKm) * cfg.DistanceWeight
		composite += term
		*adjustments = append(*adjustments,
			fmt.Sprintf("distance %.1fkm <= %.1fkm: +%.4f", *req.DistanceKm, cfg.DistanceMaxKm, term))
	}

	return composite
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
