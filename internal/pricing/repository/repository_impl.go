package repository

import (
	"context"

	pricingdomain "github.com/verifield/fieldpay/internal/pricing/domain"
	"github.com/verifield/fieldpay/pkg/db/option"
	"github.com/verifield/fieldpay/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() pricingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, cfg *pricingdomain.Config) error {
	return repository.ProvideStore[pricingdomain.Config](db).Create(ctx, cfg)
}

func (r *repo) FindLatest(ctx context.Context, db *gorm.DB) (*pricingdomain.Config, error) {
	rows, err := repository.ProvideStore[pricingdomain.Config](db).Find(
		ctx,
		&pricingdomain.Config{},
		option.WithOrderBy("version DESC"),
		option.WithLimit(1),
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
