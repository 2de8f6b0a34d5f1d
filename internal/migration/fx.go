package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/verifield/fieldpay/internal/config"
	"github.com/verifield/fieldpay/internal/pricing/domain"
	ratecarddomain "github.com/verifield/fieldpay/internal/ratecard/domain"
	"github.com/verifield/fieldpay/internal/seed"
	tierdomain "github.com/verifield/fieldpay/internal/tier/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Versioned SQL targets postgres; other dialects are for local
			// development and take the schema straight from the models.
			if err := conn.AutoMigrate(
				&tierdomain.TierPincode{},
				&ratecarddomain.RateCard{},
				&domain.Config{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultRateCards(conn, node)
	}),
)
