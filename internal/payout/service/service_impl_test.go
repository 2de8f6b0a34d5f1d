package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifield/fieldpay/internal/clock"
	"github.com/verifield/fieldpay/internal/config"
	payoutdomain "github.com/verifield/fieldpay/internal/payout/domain"
	pricingdomain "github.com/verifield/fieldpay/internal/pricing/domain"
	pricingrepo "github.com/verifield/fieldpay/internal/pricing/repository"
	pricingservice "github.com/verifield/fieldpay/internal/pricing/service"
	ratecarddomain "github.com/verifield/fieldpay/internal/ratecard/domain"
	ratecardrepo "github.com/verifield/fieldpay/internal/ratecard/repository"
	ratecardservice "github.com/verifield/fieldpay/internal/ratecard/service"
	"github.com/verifield/fieldpay/internal/slab"
	tierdomain "github.com/verifield/fieldpay/internal/tier/domain"
	tierrepo "github.com/verifield/fieldpay/internal/tier/repository"
	tierservice "github.com/verifield/fieldpay/internal/tier/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	payouts   payoutdomain.Service
	tiers     tierdomain.Service
	rateCards ratecarddomain.Service
	pricing   pricingdomain.Service
}

func setup(t *testing.T, payoutCfg config.PayoutConfig) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&tierdomain.TierPincode{},
		&ratecarddomain.RateCard{},
		&pricingdomain.Config{},
	))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	holder := config.NewStaticPayoutConfigHolder(payoutCfg)
	slabs := slab.NewProvider(holder)

	tiers := tierservice.New(tierservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: tierrepo.Provide(), Payout: holder,
	})
	rateCards := ratecardservice.New(ratecardservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: ratecardrepo.Provide(), Slabs: slabs,
	})
	pricing := pricingservice.New(pricingservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: pricingrepo.Provide(),
	})

	return &fixture{
		payouts: New(Params{
			Log: log, Tiers: tiers, RateCards: rateCards,
			Pricing: pricing, Slabs: slabs, Payout: holder,
		}),
		tiers:     tiers,
		rateCards: rateCards,
		pricing:   pricing,
	}
}

func floatPtr(v float64) *float64 { return &v }

// seedMetroCard maps 560001 to tier_1 and stores its within_24h card.
func seedMetroCard(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	_, err := f.tiers.AssignPincodes(ctx, tierdomain.AssignRequest{
		Tier: "tier_1", Pincodes: []string{"560001"},
	})
	require.NoError(t, err)
	_, err = f.rateCards.Create(ctx, ratecarddomain.CreateRequest{
		Tier: "tier_1", Slab: "within_24h", BaseRate: 500, TravelAllowance: 50,
	})
	require.NoError(t, err)
}

func TestCalculateBaseScenario(t *testing.T) {
	f := setup(t, config.DefaultPayoutConfig())
	seedMetroCard(t, f)

	res, err := f.payouts.Calculate(context.Background(), payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h",
	})
	require.NoError(t, err)

	assert.Equal(t, 600.00, res.BaseRate)
	assert.Equal(t, 50.00, res.TravelAllowance)
	assert.Equal(t, 0.00, res.Bonus)
	assert.Equal(t, 650.00, res.TotalRate)
	assert.Equal(t, "tier_1", res.Breakdown.PincodeTier)
	assert.Equal(t, "within_24h", res.Breakdown.CompletionSlab)
	assert.Equal(t, "500.00 x 1.2000 = 600.00", res.Breakdown.BaseCalculation)
	assert.Empty(t, res.Breakdown.Adjustments)
}

func TestCalculateQualityBonus(t *testing.T) {
	f := setup(t, config.DefaultPayoutConfig())
	seedMetroCard(t, f)

	res, err := f.payouts.Calculate(context.Background(), payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h", QualityScore: floatPtr(0.95),
	})
	require.NoError(t, err)

	// composite = 1 + (0.95-0.85)*0.4 = 1.04
	assert.Equal(t, 624.00, res.BaseRate)
	assert.Equal(t, 674.00, res.TotalRate)
	require.Len(t, res.Breakdown.Adjustments, 1)
	assert.Contains(t, res.Breakdown.Adjustments[0], "quality")
}

func TestCalculateMissingRateCard(t *testing.T) {
	f := setup(t, config.DefaultPayoutConfig())

	res, err := f.payouts.Calculate(context.Background(), payoutdomain.Request{
		Pincode: "999999", Slab: "within_1w",
	})
	assert.ErrorIs(t, err, ratecarddomain.ErrNoActiveRateCard)
	assert.Nil(t, res)
}

func TestCalculateUnmappedPincodeFallsBackToTier2(t *testing.T) {
	f := setup(t, config.DefaultPayoutConfig())
	ctx := context.Background()

	_, err := f.rateCards.Create(ctx, ratecarddomain.CreateRequest{
		Tier: "tier_2", Slab: "within_72h", BaseRate: 400,
	})
	require.NoError(t, err)

	res, err := f.payouts.Calculate(ctx, payoutdomain.Request{
		Pincode: "110099", Slab: "within_72h",
	})
	require.NoError(t, err)
	assert.Equal(t, "tier_2", res.Breakdown.PincodeTier)
	assert.Equal(t, 400.00, res.BaseRate)
}

func TestCalculateBaseRateOverride(t *testing.T) {
	f := setup(t, config.DefaultPayoutConfig())
	seedMetroCard(t, f)

	res, err := f.payouts.Calculate(context.Background(), payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h", BaseRateOverride: floatPtr(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, 1200.00, res.BaseRate)
	assert.Equal(t, 1250.00, res.TotalRate)

	_, err = f.payouts.Calculate(context.Background(), payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h", BaseRateOverride: floatPtr(-10),
	})
	assert.ErrorIs(t, err, payoutdomain.ErrInvalidAmount)
}

func TestCalculateResolvesSlabFromHours(t *testing.T) {
	f := setup(t, config.DefaultPayoutConfig())
	seedMetroCard(t, f)

	res, err := f.payouts.Calculate(context.Background(), payoutdomain.Request{
		Pincode: "560001", RequestedHours: floatPtr(20),
	})
	require.NoError(t, err)
	assert.Equal(t, "within_24h", res.Breakdown.CompletionSlab)

	_, err = f.payouts.Calculate(context.Background(), payoutdomain.Request{Pincode: "560001"})
	assert.ErrorIs(t, err, payoutdomain.ErrMissingSlab)
}

func TestDistanceBoundary(t *testing.T) {
	f := setup(t, config.DefaultPayoutConfig())
	seedMetroCard(t, f)
	ctx := context.Background()

	// At the cap the linear bonus is exactly zero.
	atMax, err := f.payouts.Calculate(ctx, payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h", DistanceKm: floatPtr(50),
	})
	require.NoError(t, err)
	assert.Equal(t, 600.00, atMax.BaseRate)

	// Slightly inside the cap pays strictly more.
	inside, err := f.payouts.Calculate(ctx, payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h", DistanceKm: floatPtr(49),
	})
	require.NoError(t, err)
	assert.Greater(t, inside.BaseRate, atMax.BaseRate)

	// Beyond the cap contributes nothing, never a penalty.
	beyond, err := f.payouts.Calculate(ctx, payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h", DistanceKm: floatPtr(80),
	})
	require.NoError(t, err)
	assert.Equal(t, 600.00, beyond.BaseRate)
	assert.Empty(t, beyond.Breakdown.Adjustments)
}

func TestQualityMonotonicity(t *testing.T) {
	f := setup(t, config.DefaultPayoutConfig())
	seedMetroCard(t, f)
	ctx := context.Background()

	prev := 0.0
	for _, score := range []float64{0.5, 0.85, 0.9, 0.95, 1.0} {
		res, err := f.payouts.Calculate(ctx, payoutdomain.Request{
			Pincode: "560001", Slab: "within_24h", QualityScore: floatPtr(score),
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.TotalRate, prev, "score %.2f", score)
		prev = res.TotalRate
	}
}

func TestCalculateIdempotent(t *testing.T) {
	f := setup(t, config.DefaultPayoutConfig())
	seedMetroCard(t, f)
	ctx := context.Background()

	req := payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h",
		QualityScore: floatPtr(0.92), DemandLevel: floatPtr(0.9), DistanceKm: floatPtr(12),
	}
	first, err := f.payouts.Calculate(ctx, req)
	require.NoError(t, err)
	second, err := f.payouts.Calculate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNoOptionalInputsEqualsDisabledPricing(t *testing.T) {
	ctx := context.Background()

	enabled := setup(t, config.DefaultPayoutConfig())
	seedMetroCard(t, enabled)
	withDefaults, err := enabled.payouts.Calculate(ctx, payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h",
	})
	require.NoError(t, err)

	disabled := setup(t, config.DefaultPayoutConfig())
	seedMetroCard(t, disabled)
	_, err = disabled.pricing.Upsert(ctx, pricingdomain.UpsertRequest{
		Enabled:          false,
		QualityThreshold: 0.85, QualityWeight: 0.4,
		DemandThreshold: 0.8, DemandWeight: 0.3,
		DistanceMaxKm: 50, DistanceWeight: 0.3,
	})
	require.NoError(t, err)
	withDisabled, err := disabled.payouts.Calculate(ctx, payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h",
	})
	require.NoError(t, err)

	assert.Equal(t, withDefaults.BaseRate, withDisabled.BaseRate)
	assert.Equal(t, withDefaults.TotalRate, withDisabled.TotalRate)
}

func TestSlabBonusPercent(t *testing.T) {
	cfg := config.PayoutConfig{
		Slabs: []config.SlabSetting{
			{Key: "within_24h", MaxHours: floatPtr(24), SpeedMultiplier: 1.2, BonusPercent: 0.05},
			{Key: "within_1w", MaxHours: nil, SpeedMultiplier: 0.85, BonusPercent: 0},
		},
		TierMultipliers: map[string]float64{"tier_1": 1.0, "tier_2": 1.0, "tier_3": 1.0},
	}
	f := setup(t, cfg)
	seedMetroCard(t, f)

	res, err := f.payouts.Calculate(context.Background(), payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h",
	})
	require.NoError(t, err)

	// bonus = 600 * 0.05 = 30
	assert.Equal(t, 600.00, res.BaseRate)
	assert.Equal(t, 30.00, res.Bonus)
	assert.Equal(t, 680.00, res.TotalRate)
	require.Len(t, res.Breakdown.Adjustments, 1)
	assert.Contains(t, res.Breakdown.Adjustments[0], "slab bonus")
}

func TestTierMultiplierApplied(t *testing.T) {
	cfg := config.DefaultPayoutConfig()
	cfg.TierMultipliers["tier_1"] = 1.5
	f := setup(t, cfg)
	seedMetroCard(t, f)

	res, err := f.payouts.Calculate(context.Background(), payoutdomain.Request{
		Pincode: "560001", Slab: "within_24h",
	})
	require.NoError(t, err)

	// 500 * 1.5 * 1.2 = 900
	assert.Equal(t, 900.00, res.BaseRate)
	assert.Equal(t, 950.00, res.TotalRate)
}
