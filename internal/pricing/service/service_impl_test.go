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
	"github.com/verifield/fieldpay/internal/pricing/domain"
	"github.com/verifield/fieldpay/internal/pricing/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Config{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestCurrentDefaultsWhenEmpty(t *testing.T) {
	svc := setupService(t)

	cfg := svc.Current(context.Background())
	assert.Equal(t, int64(0), cfg.Version)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 0.85, cfg.QualityThreshold)
	assert.Equal(t, 0.4, cfg.QualityWeight)
	assert.Equal(t, 0.8, cfg.DemandThreshold)
	assert.Equal(t, 0.3, cfg.DemandWeight)
	assert.Equal(t, 50.0, cfg.DistanceMaxKm)
	assert.Equal(t, 0.3, cfg.DistanceWeight)
}

func TestUpsertBumpsVersionAndReplacesLive(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, domain.UpsertRequest{
		Enabled:          true,
		QualityThreshold: 0.9,
		QualityWeight:    0.5,
		DemandThreshold:  0.7,
		DemandWeight:     0.2,
		DistanceMaxKm:    40,
		DistanceWeight:   0.25,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)

	live := svc.Current(ctx)
	assert.Equal(t, 0.9, live.QualityThreshold)
	assert.Equal(t, 40.0, live.DistanceMaxKm)

	second, err := svc.Upsert(ctx, domain.UpsertRequest{
		Enabled:          false,
		QualityThreshold: 0.9,
		QualityWeight:    0.5,
		DemandThreshold:  0.7,
		DemandWeight:     0.2,
		DistanceMaxKm:    40,
		DistanceWeight:   0.25,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.False(t, svc.Current(ctx).Enabled)
}

func TestInvalidateReloadsFromStore(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertRequest{
		Enabled:          true,
		QualityThreshold: 0.8,
		QualityWeight:    0.1,
		DemandThreshold:  0.6,
		DemandWeight:     0.1,
		DistanceMaxKm:    30,
		DistanceWeight:   0.1,
	})
	require.NoError(t, err)

	svc.Invalidate()

	cfg := svc.Current(ctx)
	assert.Equal(t, int64(1), cfg.Version)
	assert.Equal(t, 0.8, cfg.QualityThreshold)
}

func TestUpsertValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	cases := []domain.UpsertRequest{
		{QualityThreshold: 1.5, QualityWeight: 0.4, DemandThreshold: 0.8, DemandWeight: 0.3, DistanceMaxKm: 50, DistanceWeight: 0.3},
		{QualityThreshold: 0.85, QualityWeight: -0.1, DemandThreshold: 0.8, DemandWeight: 0.3, DistanceMaxKm: 50, DistanceWeight: 0.3},
		{QualityThreshold: 0.85, QualityWeight: 0.4, DemandThreshold: 0.8, DemandWeight: 0.3, DistanceMaxKm: 0, DistanceWeight: 0.3},
	}
	for _, req := range cases {
		_, err := svc.Upsert(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidPricingConfig)
	}
}
