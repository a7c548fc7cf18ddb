// Package models defines the core data types shared across the analysis engine.
package models

import (
	"time"

	apperrors "options-insight/internal/errors"
)

// OptionType identifies the side of an option contract.
type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// OptionLeg represents a single contract in an option chain.
type OptionLeg struct {
	Strike float64
	Type   OptionType
	OI     int64
	Volume int64
	IV     float64 // implied volatility in percent, 0 when unknown
	LTP    float64
}

// MarketSnapshot is a point-in-time view of spot and the option chain for
// one symbol. A snapshot is owned by the caller for the duration of a single
// analysis request and is never mutated by the engine.
type MarketSnapshot struct {
	Symbol    string
	SpotPrice float64
	Timestamp time.Time
	Legs      []OptionLeg
	Source    string // "kite", "sample"
}

// Validate checks the snapshot against the chain invariants: a non-empty
// chain, non-negative OI and volume, and strikes forming a strictly
// increasing sequence with a uniform step. Legs are expected sorted by
// strike with the call preceding the put at each strike.
func (s *MarketSnapshot) Validate() error {
	if s.Symbol == "" {
		return apperrors.NewValidationError("symbol", s.Symbol, "symbol is required")
	}
	if s.SpotPrice <= 0 {
		return apperrors.NewValidationError("spot_price", s.SpotPrice, "spot price must be positive")
	}
	if len(s.Legs) == 0 {
		return apperrors.ErrEmptyChain
	}

	strikes := s.Strikes()
	if len(strikes) < 2 {
		return apperrors.NewValidationError("legs", len(s.Legs), "chain must span at least two strikes")
	}

	step := strikes[1] - strikes[0]
	if step <= 0 {
		return apperrors.NewValidationError("strikes", strikes[1], "strikes must be strictly increasing")
	}
	for i := 1; i < len(strikes); i++ {
		d := strikes[i] - strikes[i-1]
		if d <= 0 {
			return apperrors.NewValidationError("strikes", strikes[i], "strikes must be strictly increasing")
		}
		if !approxEqual(d, step) {
			return apperrors.NewValidationError("strikes", strikes[i], "strike step is not uniform")
		}
	}

	seen := make(map[float64]map[OptionType]bool, len(strikes))
	for _, leg := range s.Legs {
		if leg.Type != OptionCall && leg.Type != OptionPut {
			return apperrors.NewValidationError("type", string(leg.Type), "option type must be CALL or PUT")
		}
		if leg.OI < 0 {
			return apperrors.NewValidationError("oi", leg.OI, "open interest must be non-negative")
		}
		if leg.Volume < 0 {
			return apperrors.NewValidationError("volume", leg.Volume, "volume must be non-negative")
		}
		if leg.LTP < 0 {
			return apperrors.NewValidationError("ltp", leg.LTP, "last traded price must be non-negative")
		}
		types := seen[leg.Strike]
		if types == nil {
			types = make(map[OptionType]bool, 2)
			seen[leg.Strike] = types
		}
		if types[leg.Type] {
			return apperrors.NewValidationError("legs", leg.Strike, "duplicate strike/type pair")
		}
		types[leg.Type] = true
	}

	return nil
}

// Strikes returns the distinct strikes present in the chain, in ascending
// order. Legs are stored sorted by strike, so a single pass suffices.
func (s *MarketSnapshot) Strikes() []float64 {
	strikes := make([]float64, 0, len(s.Legs)/2+1)
	for _, leg := range s.Legs {
		if len(strikes) == 0 || !approxEqual(strikes[len(strikes)-1], leg.Strike) {
			strikes = append(strikes, leg.Strike)
		}
	}
	return strikes
}

// StrikeStep returns the uniform distance between adjacent strikes,
// or 0 when the chain spans fewer than two strikes.
func (s *MarketSnapshot) StrikeStep() float64 {
	strikes := s.Strikes()
	if len(strikes) < 2 {
		return 0
	}
	return strikes[1] - strikes[0]
}

// Leg returns the leg at the given strike and type, or nil when absent.
func (s *MarketSnapshot) Leg(strike float64, typ OptionType) *OptionLeg {
	for i := range s.Legs {
		if approxEqual(s.Legs[i].Strike, strike) && s.Legs[i].Type == typ {
			return &s.Legs[i]
		}
	}
	return nil
}

// CallLegs returns the call legs in strike order.
func (s *MarketSnapshot) CallLegs() []OptionLeg {
	return s.legsOfType(OptionCall)
}

// PutLegs returns the put legs in strike order.
func (s *MarketSnapshot) PutLegs() []OptionLeg {
	return s.legsOfType(OptionPut)
}

func (s *MarketSnapshot) legsOfType(typ OptionType) []OptionLeg {
	out := make([]OptionLeg, 0, len(s.Legs)/2)
	for _, leg := range s.Legs {
		if leg.Type == typ {
			out = append(out, leg)
		}
	}
	return out
}

// approxEqual compares strike arithmetic with a tolerance suited to
// NSE strike ladders (whole or half-point strikes).
func approxEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}
