package slab

import (
	"github.com/verifield/fieldpay/internal/config"
	"go.uber.org/fx"
)

// Provider hands out the catalog built from the current payout config, so a
// file reload is picked up by the next calculation.
type Provider struct {
	holder *config.PayoutConfigHolder
}

func NewProvider(holder *config.PayoutConfigHolder) *Provider {
	return &Provider{holder: holder}
}

func (p *Provider) Catalog() *Catalog {
	return NewCatalog(p.holder.Get())
}

var Module = fx.Module("slab",
	fx.Provide(NewProvider),
)
