// Package domain contains the geographic tier model for pincode
// classification.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tier is the geographic classification of a pincode.
type Tier string

const (
	TierMetro Tier = "tier_1"
	TierCity  Tier = "tier_2"
	TierRural Tier = "tier_3"
)

// DefaultTier is the silent fallback for pincodes absent from every tier.
// Pricing must never fail merely because a pincode is unclassified.
const DefaultTier = TierCity

// Order returns tiers in resolution order; the first tier owning a pincode
// wins.
func Order() []Tier {
	return []Tier{TierMetro, TierCity, TierRural}
}

func (t Tier) Valid() bool {
	switch t {
	case TierMetro, TierCity, TierRural:
		return true
	default:
		return false
	}
}

// TierPincode assigns one pincode to one tier.
type TierPincode struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Tier      string       `json:"tier" gorm:"type:text;not null;index"`
	Pincode   string       `json:"pincode" gorm:"type:text;not null;uniqueIndex"`
	CreatedBy string       `json:"created_by" gorm:"type:text"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TierPincode) TableName() string { return "tier_pincodes" }
