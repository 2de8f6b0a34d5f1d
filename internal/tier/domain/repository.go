package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, assignment *TierPincode) error
	DeleteByPincode(ctx context.Context, db *gorm.DB, pincode string) (int64, error)
	ListByTier(ctx context.Context, db *gorm.DB, tier Tier) ([]TierPincode, error)
	CountByTier(ctx context.Context, db *gorm.DB) (map[Tier]int64, error)
}
