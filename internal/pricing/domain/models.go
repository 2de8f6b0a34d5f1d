// Package domain holds the dynamic pricing configuration: the weights and
// thresholds that turn worker quality, area demand and travel distance into a
// payout multiplier.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Config is one version of the dynamic pricing policy. Versions are
// append-only; the newest row is live.
type Config struct {
	ID      snowflake.ID `json:"id" gorm:"primaryKey"`
	Version int64        `json:"version" gorm:"not null;uniqueIndex"`
	Enabled bool         `json:"enabled" gorm:"not null;default:true"`

	QualityThreshold float64 `json:"quality_threshold" gorm:"not null"`
	QualityWeight    float64 `json:"quality_weight" gorm:"not null"`
	DemandThreshold  float64 `json:"demand_threshold" gorm:"not null"`
	DemandWeight     float64 `json:"demand_weight" gorm:"not null"`
	DistanceMaxKm    float64 `json:"distance_max_km" gorm:"not null"`
	DistanceWeight   float64 `json:"distance_weight" gorm:"not null"`

	CreatedBy string    `json:"created_by" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Config) TableName() string { return "pricing_configs" }

// Default is the policy used before any version is stored, and the fallback
// when the store is unreachable.
func Default() Config {
	return Config{
		Version:          0,
		Enabled:          true,
		QualityThreshold: 0.85,
		QualityWeight:    0.4,
		DemandThreshold:  0.8,
		DemandWeight:     0.3,
		DistanceMaxKm:    50,
		DistanceWeight:   0.3,
	}
}
