package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SlabSetting defines one completion slab: how fast the case must close,
// the pay multiplier it carries and its bonus percentage.
type SlabSetting struct {
	Key             string   `mapstructure:"key" json:"key"`
	MaxHours        *float64 `mapstructure:"maxHours" json:"max_hours,omitempty"`
	SpeedMultiplier float64  `mapstructure:"speedMultiplier" json:"speed_multiplier"`
	BonusPercent    float64  `mapstructure:"bonusPercent" json:"bonus_percent"`
}

// PayoutConfig is the file-backed payout policy: the ordered slab catalog
// (fastest first) and per-tier pay multipliers.
type PayoutConfig struct {
	Slabs           []SlabSetting      `mapstructure:"slabs"`
	TierMultipliers map[string]float64 `mapstructure:"tierMultipliers"`
}

func DefaultPayoutConfig() PayoutConfig {
	return PayoutConfig{
		Slabs: []SlabSetting{
			{Key: "within_24h", MaxHours: floatPtr(24), SpeedMultiplier: 1.2, BonusPercent: 0},
			{Key: "within_48h", MaxHours: floatPtr(48), SpeedMultiplier: 1.1, BonusPercent: 0},
			{Key: "within_72h", MaxHours: floatPtr(72), SpeedMultiplier: 1.0, BonusPercent: 0},
			{Key: "within_1w", MaxHours: nil, SpeedMultiplier: 0.85, BonusPercent: 0},
		},
		TierMultipliers: map[string]float64{
			"tier_1": 1.0,
			"tier_2": 1.0,
			"tier_3": 1.0,
		},
	}
}

func floatPtr(v float64) *float64 { return &v }

type PayoutConfigHolder struct {
	current atomic.Value // holds PayoutConfig
}

func NewPayoutConfigHolder() (*PayoutConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("payout")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/fieldpay/config") // Volume-mounted config
	v.AddConfigPath("/etc/fieldpay")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("FIELDPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// if config file not found, use defaults
		defaults := DefaultPayoutConfig()
		v.SetDefault("payout.slabs", defaults.Slabs)
		v.SetDefault("payout.tierMultipliers", defaults.TierMultipliers)
	}

	var cfg PayoutConfig
	if err := v.UnmarshalKey("payout", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Slabs) == 0 {
		cfg = DefaultPayoutConfig()
	}
	if err := validatePayoutConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PayoutConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PayoutConfig
		if err := v.UnmarshalKey("payout", &updated); err != nil {
			log.Printf("[payout-config] reload failed: %v", err)
			return
		}
		if err := validatePayoutConfig(updated); err != nil {
			log.Printf("[payout-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[payout-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPayoutConfigHolder wraps a fixed config, for tests and tools.
func NewStaticPayoutConfigHolder(cfg PayoutConfig) *PayoutConfigHolder {
	holder := &PayoutConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PayoutConfigHolder) Get() PayoutConfig {
	return h.current.Load().(PayoutConfig)
}

// TierMultiplier returns the configured pay multiplier for a tier, 1.0 when unset.
func (c PayoutConfig) TierMultiplier(tier string) float64 {
	if m, ok := c.TierMultipliers[tier]; ok && m > 0 {
		return m
	}
	return 1.0
}

func validatePayoutConfig(cfg PayoutConfig) error {
	if len(cfg.Slabs) == 0 {
		return errors.New("payout.slabs cannot be empty")
	}
	seen := make(map[string]struct{}, len(cfg.Slabs))
	prev := 0.0
	for i, slab := range cfg.Slabs {
		key := strings.TrimSpace(slab.Key)
		if key == "" {
			return errors.New("payout.slabs entries require a key")
		}
		if _, dup := seen[key]; dup {
			return errors.New("payout.slabs keys must be unique")
		}
		seen[key] = struct{}{}
		if slab.SpeedMultiplier <= 0 {
			return errors.New("payout.slabs speedMultiplier must be positive")
		}
		// Faster slabs must never pay less per unit than slower ones.
		if i > 0 && slab.SpeedMultiplier > prev {
			return errors.New("payout.slabs must be ordered fastest-first with non-increasing multipliers")
		}
		prev = slab.SpeedMultiplier
		if slab.BonusPercent < 0 {
			return errors.New("payout.slabs bonusPercent cannot be negative")
		}
	}
	for tier, mult := range cfg.TierMultipliers {
		if strings.TrimSpace(tier) == "" || mult <= 0 {
			return errors.New("payout.tierMultipliers entries must be positive")
		}
	}
	return nil
}
