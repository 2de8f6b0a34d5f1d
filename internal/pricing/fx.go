package pricing

import (
	"github.com/verifield/fieldpay/internal/pricing/repository"
	"github.com/verifield/fieldpay/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
