// Package domain defines the payout calculation contract: one case in, one
// itemized payable result out.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Calculate prices one verification case. It is all-or-nothing: any
	// failure aborts with no partial result.
	Calculate(ctx context.Context, req Request) (*Result, error)
}

// Request describes the case to price. Optional inputs are pointers; nil
// means "factor not applicable", never zero. Quality and demand are expected
// in [0,1] but are passed through unchecked; range enforcement is the
// caller's contract.
type Request struct {
	Pincode  string        `json:"pincode" binding:"required"`
	Slab     string        `json:"slab"`
	ClientID *snowflake.ID `json:"client_id,omitempty"`

	// RequestedHours resolves the slab from a completion deadline when no
	// explicit slab key is given.
	RequestedHours *float64 `json:"requested_hours,omitempty"`

	BaseRateOverride *float64 `json:"base_rate_override,omitempty"`
	QualityScore     *float64 `json:"quality_score,omitempty"`
	DemandLevel      *float64 `json:"demand_level,omitempty"`
	DistanceKm       *float64 `json:"distance_km,omitempty"`
}

// Result is ephemeral; it is computed fresh per call and never persisted.
type Result struct {
	BaseRate        float64   `json:"base_rate"`
	TravelAllowance float64   `json:"travel_allowance"`
	Bonus           float64   `json:"bonus"`
	TotalRate       float64   `json:"total_rate"`
	Breakdown       Breakdown `json:"breakdown"`
}

type Breakdown struct {
	PincodeTier     string   `json:"pincode_tier"`
	CompletionSlab  string   `json:"completion_slab"`
	BaseCalculation string   `json:"base_calculation"`
	Adjustments     []string `json:"adjustments"`
}

var (
	ErrMissingPincode = errors.New("missing_pincode")
	ErrMissingSlab    = errors.New("missing_slab")
	ErrInvalidAmount  = errors.New("invalid_amount")
)
