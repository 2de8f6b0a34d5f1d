// Package domain holds the rate card model: the payout policy row that sets
// base pay, travel allowance and flat bonus for one tier and completion slab.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// RateCard is one payout policy. ClientID is nil for the global default;
// a non-nil ClientID narrows the card to one client and wins over the
// global card for the same tier and slab.
type RateCard struct {
	ID              snowflake.ID      `json:"id" gorm:"primaryKey"`
	Tier            string            `json:"tier" gorm:"type:text;not null;index:idx_rate_cards_scope"`
	Slab            string            `json:"slab" gorm:"type:text;not null;index:idx_rate_cards_scope"`
	ClientID        *snowflake.ID     `json:"client_id,omitempty" gorm:"index:idx_rate_cards_scope"`
	BaseRate        float64           `json:"base_rate" gorm:"not null"`
	TravelAllowance float64           `json:"travel_allowance" gorm:"not null;default:0"`
	Bonus           float64           `json:"bonus" gorm:"not null;default:0"`
	Active          bool              `json:"active" gorm:"not null;default:true;index"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:json"`
	CreatedBy       string            `json:"created_by" gorm:"type:text"`
	UpdatedBy       string            `json:"updated_by" gorm:"type:text"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RateCard) TableName() string { return "rate_cards" }
