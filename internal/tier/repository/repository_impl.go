package repository

import (
	"context"

	tierdomain "github.com/verifield/fieldpay/internal/tier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tierdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, assignment *tierdomain.TierPincode) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tier_pincodes (
			id, tier, pincode, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		assignment.ID,
		assignment.Tier,
		assignment.Pincode,
		assignment.CreatedBy,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	).Error
}

func (r *repo) DeleteByPincode(ctx context.Context, db *gorm.DB, pincode string) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM tier_pincodes WHERE pincode = ?`,
		pincode,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) ListByTier(ctx context.Context, db *gorm.DB, tier tierdomain.Tier) ([]tierdomain.TierPincode, error) {
	var items []tierdomain.TierPincode
	err := db.WithContext(ctx).Raw(
		`SELECT id, tier, pincode, created_by, created_at, updated_at
		 FROM tier_pincodes WHERE tier = ? ORDER BY pincode ASC`,
		string(tier),
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountByTier(ctx context.Context, db *gorm.DB) (map[tierdomain.Tier]int64, error) {
	var rows []struct {
		Tier  string
		Total int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT tier, COUNT(*) AS total FROM tier_pincodes GROUP BY tier`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[tierdomain.Tier]int64, len(rows))
	for _, row := range rows {
		counts[tierdomain.Tier(row.Tier)] = row.Total
	}
	return counts, nil
}
