// Package seed bootstraps a usable rate policy on first startup so a fresh
// deployment can price cases before any admin configuration happens.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ratecarddomain "github.com/verifield/fieldpay/internal/ratecard/domain"
	"gorm.io/gorm"
)

const seedActor = "system:seed"

type seedRate struct {
	baseRate float64
	travel   float64
}

// defaultBaseRates carry the launch pricing: metro work pays most, rural
// least, and the travel allowance grows where coverage is sparse.
var defaultBaseRates = map[string]seedRate{
	"tier_1": {baseRate: 500, travel: 50},
	"tier_2": {baseRate: 450, travel: 60},
	"tier_3": {baseRate: 400, travel: 80},
}

var defaultSlabs = []string{"within_24h", "within_48h", "within_72h", "within_1w"}

// EnsureDefaultRateCards inserts the global rate card matrix when the table
// is empty. An already-configured deployment is left untouched.
func EnsureDefaultRateCards(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ratecarddomain.RateCard{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		cards := make([]ratecarddomain.RateCard, 0, len(defaultBaseRates)*len(defaultSlabs))
		for tier, rate := range defaultBaseRates {
			for _, slab := range defaultSlabs {
				cards = append(cards, ratecarddomain.RateCard{
					ID:              node.Generate(),
					Tier:            tier,
					Slab:            slab,
					BaseRate:        rate.baseRate,
					TravelAllowance: rate.travel,
					Active:          true,
					CreatedBy:       seedActor,
					UpdatedBy:       seedActor,
					CreatedAt:       now,
					UpdatedAt:       now,
				})
			}
		}
		return tx.Create(&cards).Error
	})
}
