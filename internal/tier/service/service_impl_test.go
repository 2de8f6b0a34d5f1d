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
	"github.com/verifield/fieldpay/internal/tier/domain"
	"github.com/verifield/fieldpay/internal/tier/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.TierPincode{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		Repo:   repository.Provide(),
		Payout: config.NewStaticPayoutConfigHolder(config.DefaultPayoutConfig()),
	})
}

func TestResolveFallsBackToDefaultTier(t *testing.T) {
	svc := setupService(t)

	tier, mapped := svc.Resolve(context.Background(), "999999")
	assert.Equal(t, domain.DefaultTier, tier)
	assert.False(t, mapped)
}

func TestAssignAndResolve(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	summary, err := svc.AssignPincodes(ctx, domain.AssignRequest{
		Tier:     "tier_1",
		Pincodes: []string{"560001", "560002"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TierMetro, summary.Tier)
	assert.Equal(t, int64(2), summary.Pincodes)

	tier, mapped := svc.Resolve(ctx, "560001")
	assert.Equal(t, domain.TierMetro, tier)
	assert.True(t, mapped)

	tier, mapped = svc.Resolve(ctx, "110011")
	assert.Equal(t, domain.DefaultTier, tier)
	assert.False(t, mapped)
}

func TestAssignRejectsInvalidInput(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.AssignPincodes(ctx, domain.AssignRequest{Tier: "tier_9", Pincodes: []string{"560001"}})
	assert.ErrorIs(t, err, domain.ErrInvalidTier)

	_, err = svc.AssignPincodes(ctx, domain.AssignRequest{Tier: "tier_1"})
	assert.ErrorIs(t, err, domain.ErrInvalidPincode)

	_, err = svc.AssignPincodes(ctx, domain.AssignRequest{Tier: "tier_1", Pincodes: []string{"  "}})
	assert.ErrorIs(t, err, domain.ErrInvalidPincode)
}

func TestAssignRejectsDuplicatePincode(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.AssignPincodes(ctx, domain.AssignRequest{Tier: "tier_1", Pincodes: []string{"400001"}})
	require.NoError(t, err)

	_, err = svc.AssignPincodes(ctx, domain.AssignRequest{Tier: "tier_3", Pincodes: []string{"400001"}})
	assert.ErrorIs(t, err, domain.ErrPincodeTaken)

	// The original assignment survives the failed reassignment.
	tier, mapped := svc.Resolve(ctx, "400001")
	assert.Equal(t, domain.TierMetro, tier)
	assert.True(t, mapped)
}

func TestRemovePincode(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.AssignPincodes(ctx, domain.AssignRequest{Tier: "tier_3", Pincodes: []string{"781001"}})
	require.NoError(t, err)

	require.NoError(t, svc.RemovePincode(ctx, "781001"))

	tier, mapped := svc.Resolve(ctx, "781001")
	assert.Equal(t, domain.DefaultTier, tier)
	assert.False(t, mapped)

	assert.ErrorIs(t, svc.RemovePincode(ctx, "781001"), domain.ErrInvalidPincode)
}

func TestListReportsPerTierCounts(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.AssignPincodes(ctx, domain.AssignRequest{Tier: "tier_1", Pincodes: []string{"560001"}})
	require.NoError(t, err)
	_, err = svc.AssignPincodes(ctx, domain.AssignRequest{Tier: "tier_3", Pincodes: []string{"781001", "781002"}})
	require.NoError(t, err)

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	byTier := make(map[domain.Tier]domain.TierSummary, len(summaries))
	for _, s := range summaries {
		byTier[s.Tier] = s
	}
	assert.Equal(t, int64(1), byTier[domain.TierMetro].Pincodes)
	assert.Equal(t, int64(0), byTier[domain.TierCity].Pincodes)
	assert.Equal(t, int64(2), byTier[domain.TierRural].Pincodes)
}
