package ratecard

import (
	"github.com/verifield/fieldpay/internal/ratecard/repository"
	"github.com/verifield/fieldpay/internal/ratecard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ratecard.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
