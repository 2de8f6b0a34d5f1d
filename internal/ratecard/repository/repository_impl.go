package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	ratecarddomain "github.com/verifield/fieldpay/internal/ratecard/domain"
	"github.com/verifield/fieldpay/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ratecarddomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, card *ratecarddomain.RateCard) error {
	return repository.ProvideStore[ratecarddomain.RateCard](db).Create(ctx, card)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ratecarddomain.RateCard, error) {
	return repository.ProvideStore[ratecarddomain.RateCard](db).FindOne(
		ctx, &ratecarddomain.RateCard{ID: id},
	)
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter ratecarddomain.ListFilter) ([]ratecarddomain.RateCard, error) {
	query := db.WithContext(ctx).Model(&ratecarddomain.RateCard{})
	if filter.Tier != "" {
		query = query.Where("tier = ?", filter.Tier)
	}
	if filter.Slab != "" {
		query = query.Where("slab = ?", filter.Slab)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	var cards []ratecarddomain.RateCard
	if err := query.Order("tier ASC, slab ASC, created_at DESC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, tier, slab string, clientID *snowflake.ID) (*ratecarddomain.RateCard, error) {
	if clientID != nil {
		var card ratecarddomain.RateCard
		err := db.WithContext(ctx).Raw(
			`SELECT * FROM rate_cards
			 WHERE tier = ? AND slab = ? AND client_id = ? AND active = ?
			 ORDER BY created_at DESC LIMIT 1`,
			tier, slab, *clientID, true,
		).Scan(&card).Error
		if err != nil {
			return nil, err
		}
		if card.ID != 0 {
			return &card, nil
		}
	}

	var card ratecarddomain.RateCard
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM rate_cards
		 WHERE tier = ? AND slab = ? AND client_id IS NULL AND active = ?
		 ORDER BY created_at DESC LIMIT 1`,
		tier, slab, true,
	).Scan(&card).Error
	if err != nil {
		return nil, err
	}
	if card.ID == 0 {
		return nil, nil
	}
	return &card, nil
}

func (r *repo) DeactivateScope(ctx context.Context, db *gorm.DB, tier, slab string, clientID *snowflake.ID, updatedBy string) error {
	if clientID != nil {
		return db.WithContext(ctx).Exec(
			`UPDATE rate_cards SET active = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE tier = ? AND slab = ? AND client_id = ? AND active = ?`,
			false, updatedBy, tier, slab, *clientID, true,
		).Error
	}
	return db.WithContext(ctx).Exec(
		`UPDATE rate_cards SET active = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE tier = ? AND slab = ? AND client_id IS NULL AND active = ?`,
		false, updatedBy, tier, slab, true,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, card *ratecarddomain.RateCard) error {
	return db.WithContext(ctx).Save(card).Error
}
