package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Tier     string
	Slab     string
	ClientID *snowflake.ID
	Active   *bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, card *RateCard) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RateCard, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]RateCard, error)

	// FindActive returns the active card for a tier and slab. A card scoped
	// to clientID wins over the global card; nil means no active card exists.
	FindActive(ctx context.Context, db *gorm.DB, tier, slab string, clientID *snowflake.ID) (*RateCard, error)

	// DeactivateScope retires every active card in the exact scope so a new
	// card can become the single active policy.
	DeactivateScope(ctx context.Context, db *gorm.DB, tier, slab string, clientID *snowflake.ID, updatedBy string) error

	Update(ctx context.Context, db *gorm.DB, card *RateCard) error
}
