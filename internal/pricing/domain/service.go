package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, cfg *Config) error
	FindLatest(ctx context.Context, db *gorm.DB) (*Config, error)
}

type Service interface {
	// Current returns the live pricing config. Failures fall back to
	// Default so a flaky store never blocks payout calculation.
	Current(ctx context.Context) Config

	// Upsert stores a new version and swaps the live config wholesale.
	Upsert(ctx context.Context, req UpsertRequest) (*Config, error)

	// Invalidate drops the cached config; the next Current reloads it.
	Invalidate()
}

// UpsertRequest carries a full replacement policy. Zero weights are legal
// (they switch a factor off), so range checks live in the service rather
// than in binding tags.
type UpsertRequest struct {
	Enabled          bool    `json:"enabled"`
	QualityThreshold float64 `json:"quality_threshold"`
	QualityWeight    float64 `json:"quality_weight"`
	DemandThreshold  float64 `json:"demand_threshold"`
	DemandWeight     float64 `json:"demand_weight"`
	DistanceMaxKm    float64 `json:"distance_max_km"`
	DistanceWeight   float64 `json:"distance_weight"`
}

var ErrInvalidPricingConfig = errors.New("invalid_pricing_config")
