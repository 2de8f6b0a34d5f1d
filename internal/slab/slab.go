// Package slab models the completion-time buckets a verification case can be
// booked under. Slabs are totally ordered by urgency: the faster the required
// turnaround, the higher the pay multiplier.
package slab

import (
	"errors"
	"strings"

	"github.com/verifield/fieldpay/internal/config"
)

var ErrUnknownSlab = errors.New("unknown_slab")

// Definition is one completion slab with its pay policy.
type Definition struct {
	Key             string   `json:"key"`
	MaxHours        *float64 `json:"max_hours,omitempty"`
	SpeedMultiplier float64  `json:"speed_multiplier"`
	BonusPercent    float64  `json:"bonus_percent"`
}

// Catalog is an immutable, urgency-ordered slab set.
type Catalog struct {
	defs  []Definition
	byKey map[string]Definition
}

// NewCatalog builds a catalog from the payout file config.
func NewCatalog(cfg config.PayoutConfig) *Catalog {
	defs := make([]Definition, 0, len(cfg.Slabs))
	byKey := make(map[string]Definition, len(cfg.Slabs))
	for _, s := range cfg.Slabs {
		def := Definition{
			Key:             strings.TrimSpace(s.Key),
			MaxHours:        s.MaxHours,
			SpeedMultiplier: s.SpeedMultiplier,
			BonusPercent:    s.BonusPercent,
		}
		defs = append(defs, def)
		byKey[def.Key] = def
	}
	return &Catalog{defs: defs, byKey: byKey}
}

// Definitions returns the slabs ordered fastest-first.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Lookup returns the slab for a key.
func (c *Catalog) Lookup(key string) (Definition, error) {
	def, ok := c.byKey[strings.TrimSpace(key)]
	if !ok {
		return Definition{}, ErrUnknownSlab
	}
	return def, nil
}

// Resolve maps a requested completion duration to the tightest slab that
// covers it. Durations beyond every bounded slab fall into the last
// (open-ended) slab.
func (c *Catalog) Resolve(requestedHours float64) Definition {
	for _, def := range c.defs {
		if def.MaxHours != nil && requestedHours <= *def.MaxHours {
			return def
		}
	}
	return c.defs[len(c.defs)-1]
}
