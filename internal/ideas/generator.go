// Package ideas turns a fused signal plus chain analytics into concrete,
// ranked trade ideas. "No actionable idea" is a valid outcome, not an
// error.
package ideas

import (
	"fmt"
	"math"
	"sort"

	"options-insight/internal/models"
)

// Params controls idea construction.
type Params struct {
	// MinConfidence below which no ideas are generated.
	MinConfidence float64
	// RewardMultiple and RiskMultiple size target and stop-loss as
	// multiples of the risked premium fraction.
	RewardMultiple float64
	RiskMultiple   float64
	// RiskFraction is the premium fraction put at risk per idea.
	RiskFraction float64
}

// DefaultParams returns a 1:2 risk-reward with 20% of premium at risk.
func DefaultParams() Params {
	return Params{
		MinConfidence:  0.5,
		RewardMultiple: 2.0,
		RiskMultiple:   1.0,
		RiskFraction:   0.20,
	}
}

// Generator builds trade ideas from fused signals. One-shot per request,
// no retained state.
type Generator struct {
	params Params
}

// NewGenerator creates a generator with the given parameters.
func NewGenerator(params Params) *Generator {
	return &Generator{params: params}
}

// Generate returns at most count ideas consistent with the fused
// direction: calls for BULLISH, puts for BEARISH. NEUTRAL or
// under-threshold confidence yields an empty slice. Legs are ranked by OI
// liquidity, ties broken by strike proximity to spot; legs whose
// risk-reward is not strictly positive are excluded. Ranks are dense
// from 1.
func (g *Generator) Generate(fused models.FusedSignal, analytics *models.ChainAnalytics, snap *models.MarketSnapshot, count int) []models.TradeIdea {
	if count <= 0 {
		return nil
	}
	if fused.Direction == models.Neutral || fused.Confidence < g.params.MinConfidence {
		return nil
	}

	var legs []models.OptionLeg
	var anchor float64
	var hasAnchor bool
	if fused.Direction == models.Bullish {
		legs = snap.CallLegs()
		anchor, hasAnchor = analytics.Resistance, analytics.HasResistance
	} else {
		legs = snap.PutLegs()
		anchor, hasAnchor = analytics.Support, analytics.HasSupport
	}

	// Tradeable legs only: a zero premium cannot anchor entry or stops.
	eligible := legs[:0:0]
	for _, leg := range legs {
		if leg.LTP > 0 {
			eligible = append(eligible, leg)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		// Proximity to the S/R anchor dominates, then OI, then nearness
		// to spot.
		if hasAnchor {
			da := math.Abs(a.Strike - anchor)
			db := math.Abs(b.Strike - anchor)
			if da != db {
				return da < db
			}
		}
		if a.OI != b.OI {
			return a.OI > b.OI
		}
		return math.Abs(a.Strike-snap.SpotPrice) < math.Abs(b.Strike-snap.SpotPrice)
	})

	ideas := make([]models.TradeIdea, 0, count)
	for _, leg := range eligible {
		if len(ideas) >= count {
			break
		}

		idea, ok := g.buildIdea(fused, analytics, snap, leg)
		if !ok {
			continue
		}
		idea.Rank = len(ideas) + 1
		ideas = append(ideas, idea)
	}

	return ideas
}

// buildIdea prices one candidate leg directionally: BULLISH ideas carry
// target above entry and stop below; BEARISH ideas the mirror image, so
// risk-reward = (target−entry)/(entry−stop) stays strictly positive in
// both cases. Returns ok=false when the leg prices to a non-positive
// ratio or a non-positive price level.
func (g *Generator) buildIdea(fused models.FusedSignal, analytics *models.ChainAnalytics, snap *models.MarketSnapshot, leg models.OptionLeg) (models.TradeIdea, bool) {
	entry := leg.LTP
	risk := entry * g.params.RiskFraction * g.params.RiskMultiple
	reward := entry * g.params.RiskFraction * g.params.RewardMultiple

	var target, stop float64
	if fused.Direction == models.Bullish {
		target = entry + reward
		stop = entry - risk
	} else {
		target = entry - reward
		stop = entry + risk
	}
	if target <= 0 || stop <= 0 {
		return models.TradeIdea{}, false
	}

	rr := (target - entry) / (entry - stop)
	if rr <= 0 {
		return models.TradeIdea{}, false
	}

	return models.TradeIdea{
		Symbol:     snap.Symbol,
		Strike:     leg.Strike,
		Type:       leg.Type,
		Direction:  fused.Direction,
		Entry:      entry,
		Target:     target,
		StopLoss:   stop,
		RiskReward: rr,
		OI:         leg.OI,
		Rationale:  rationale(fused, analytics, leg),
	}, true
}

func rationale(fused models.FusedSignal, analytics *models.ChainAnalytics, leg models.OptionLeg) string {
	if fused.Direction == models.Bullish {
		if analytics.HasResistance && leg.Strike <= analytics.Resistance {
			return fmt.Sprintf("Bullish momentum; %.0f CE below call-OI resistance %.0f", leg.Strike, analytics.Resistance)
		}
		return fmt.Sprintf("Bullish momentum with %.0f CE liquidity (OI %d)", leg.Strike, leg.OI)
	}
	if analytics.HasSupport && leg.Strike >= analytics.Support {
		return fmt.Sprintf("Bearish pressure; %.0f PE above put-OI support %.0f", leg.Strike, analytics.Support)
	}
	return fmt.Sprintf("Bearish pressure with %.0f PE liquidity (OI %d)", leg.Strike, leg.OI)
}
