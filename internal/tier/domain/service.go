package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Resolve classifies a pincode. Unmapped pincodes fall back to
	// DefaultTier; mapped reports whether an explicit assignment matched.
	Resolve(ctx context.Context, pincode string) (tier Tier, mapped bool)

	AssignPincodes(ctx context.Context, req AssignRequest) (*TierSummary, error)
	RemovePincode(ctx context.Context, pincode string) error
	List(ctx context.Context) ([]TierSummary, error)
	Reload(ctx context.Context) error
}

type AssignRequest struct {
	Tier     string   `json:"tier"`
	Pincodes []string `json:"pincodes"`
}

type TierSummary struct {
	Tier       Tier    `json:"tier"`
	Multiplier float64 `json:"multiplier"`
	Pincodes   int64   `json:"pincodes"`
}

var (
	ErrInvalidTier    = errors.New("invalid_tier")
	ErrInvalidPincode = errors.New("invalid_pincode")
	ErrPincodeTaken   = errors.New("pincode_taken")
)
