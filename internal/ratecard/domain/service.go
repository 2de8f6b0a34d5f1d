package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*RateCard, error)
	List(ctx context.Context, filter ListFilter) ([]RateCard, error)
	Get(ctx context.Context, id snowflake.ID) (*RateCard, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest) (*RateCard, error)
	Deactivate(ctx context.Context, id snowflake.ID) error

	// Lookup returns the active rate card governing a payout. Unlike tier
	// resolution there is no silent fallback: paying from a guessed rate is
	// worse than refusing to pay.
	Lookup(ctx context.Context, tier, slab string, clientID *snowflake.ID) (*RateCard, error)
}

type CreateRequest struct {
	Tier            string            `json:"tier" binding:"required"`
	Slab            string            `json:"slab" binding:"required"`
	ClientID        *snowflake.ID     `json:"client_id,omitempty"`
	BaseRate        float64           `json:"base_rate" binding:"required"`
	TravelAllowance float64           `json:"travel_allowance"`
	Bonus           float64           `json:"bonus"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty"`
}

// UpdateRequest patches a card in place; nil fields stay untouched.
type UpdateRequest struct {
	BaseRate        *float64          `json:"base_rate,omitempty"`
	TravelAllowance *float64          `json:"travel_allowance,omitempty"`
	Bonus           *float64          `json:"bonus,omitempty"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty"`
}

var (
	ErrRateCardNotFound = errors.New("rate_card_not_found")
	ErrNoActiveRateCard = errors.New("no_active_rate_card")
	ErrInvalidTier      = errors.New("invalid_tier")
	ErrInvalidSlab      = errors.New("invalid_slab")
	ErrInvalidRate      = errors.New("invalid_rate")
	ErrRateCardInactive = errors.New("rate_card_inactive")
	ErrScopeLocked      = errors.New("rate_card_scope_locked")
)
