package tier

import (
	"github.com/verifield/fieldpay/internal/tier/repository"
	"github.com/verifield/fieldpay/internal/tier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
