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
	"github.com/verifield/fieldpay/internal/ratecard/domain"
	"github.com/verifield/fieldpay/internal/ratecard/repository"
	"github.com/verifield/fieldpay/internal/slab"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.RateCard{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	holder := config.NewStaticPayoutConfigHolder(config.DefaultPayoutConfig())
	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
		Slabs: slab.NewProvider(holder),
	})
}

func TestCreateAndLookup(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	card, err := svc.Create(ctx, domain.CreateRequest{
		Tier:            "tier_2",
		Slab:            "within_48h",
		BaseRate:        500,
		TravelAllowance: 50,
	})
	require.NoError(t, err)
	assert.True(t, card.Active)

	found, err := svc.Lookup(ctx, "tier_2", "within_48h", nil)
	require.NoError(t, err)
	assert.Equal(t, card.ID, found.ID)
	assert.Equal(t, 500.0, found.BaseRate)
}

func TestCreateValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Tier: "tier_9", Slab: "within_24h", BaseRate: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidTier)

	_, err = svc.Create(ctx, domain.CreateRequest{Tier: "tier_1", Slab: "same_day", BaseRate: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidSlab)

	_, err = svc.Create(ctx, domain.CreateRequest{Tier: "tier_1", Slab: "within_24h", BaseRate: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidRate)

	_, err = svc.Create(ctx, domain.CreateRequest{Tier: "tier_1", Slab: "within_24h", BaseRate: 100, Bonus: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidRate)
}

func TestCreateRetiresPredecessorInScope(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateRequest{Tier: "tier_1", Slab: "within_24h", BaseRate: 400})
	require.NoError(t, err)

	second, err := svc.Create(ctx, domain.CreateRequest{Tier: "tier_1", Slab: "within_24h", BaseRate: 450})
	require.NoError(t, err)

	found, err := svc.Lookup(ctx, "tier_1", "within_24h", nil)
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)

	retired, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, retired.Active)
}

func TestClientCardWinsOverGlobal(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	clientID := snowflake.ID(7001)

	global, err := svc.Create(ctx, domain.CreateRequest{Tier: "tier_2", Slab: "within_72h", BaseRate: 500})
	require.NoError(t, err)

	scoped, err := svc.Create(ctx, domain.CreateRequest{
		Tier: "tier_2", Slab: "within_72h", ClientID: &clientID, BaseRate: 650,
	})
	require.NoError(t, err)

	found, err := svc.Lookup(ctx, "tier_2", "within_72h", &clientID)
	require.NoError(t, err)
	assert.Equal(t, scoped.ID, found.ID)

	// Other clients still get the global card.
	otherClient := snowflake.ID(7002)
	found, err = svc.Lookup(ctx, "tier_2", "within_72h", &otherClient)
	require.NoError(t, err)
	assert.Equal(t, global.ID, found.ID)

	found, err = svc.Lookup(ctx, "tier_2", "within_72h", nil)
	require.NoError(t, err)
	assert.Equal(t, global.ID, found.ID)
}

func TestLookupMissingScope(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Lookup(context.Background(), "tier_3", "within_1w", nil)
	assert.ErrorIs(t, err, domain.ErrNoActiveRateCard)
}

func TestUpdatePatchesFields(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	card, err := svc.Create(ctx, domain.CreateRequest{Tier: "tier_3", Slab: "within_1w", BaseRate: 300, Bonus: 20})
	require.NoError(t, err)

	newRate := 320.0
	updated, err := svc.Update(ctx, card.ID, domain.UpdateRequest{BaseRate: &newRate})
	require.NoError(t, err)
	assert.Equal(t, 320.0, updated.BaseRate)
	assert.Equal(t, 20.0, updated.Bonus)

	bad := -5.0
	_, err = svc.Update(ctx, card.ID, domain.UpdateRequest{TravelAllowance: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidRate)

	_, err = svc.Update(ctx, snowflake.ID(123456), domain.UpdateRequest{BaseRate: &newRate})
	assert.ErrorIs(t, err, domain.ErrRateCardNotFound)
}

func TestDeactivateRemovesActiveCard(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	card, err := svc.Create(ctx, domain.CreateRequest{Tier: "tier_1", Slab: "within_48h", BaseRate: 550})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, card.ID))

	_, err = svc.Lookup(ctx, "tier_1", "within_48h", nil)
	assert.ErrorIs(t, err, domain.ErrNoActiveRateCard)

	assert.ErrorIs(t, svc.Deactivate(ctx, card.ID), domain.ErrRateCardInactive)
}
