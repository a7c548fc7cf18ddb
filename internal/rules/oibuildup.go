package rules

import (
	"fmt"

	"options-insight/internal/models"
)

// OIBuildupRule votes on fresh open-interest buildup concentrated on one
// side of the chain between two snapshots. Without a prior snapshot for
// the same symbol the rule abstains.
type OIBuildupRule struct {
	Weight float64
	// Threshold is the minimum difference between call-side and put-side
	// fractional OI growth for a vote.
	Threshold float64
}

// NewOIBuildupRule returns the rule with a 5% growth-difference threshold.
func NewOIBuildupRule() *OIBuildupRule {
	return &OIBuildupRule{
		Weight:    1.0,
		Threshold: 0.05,
	}
}

func (r *OIBuildupRule) Name() string { return "oi_buildup" }

func (r *OIBuildupRule) Evaluate(snap *models.MarketSnapshot, a *models.ChainAnalytics, prior *models.MarketSnapshot) Vote {
	if prior == nil || prior.Symbol != snap.Symbol || !prior.Timestamp.Before(snap.Timestamp) {
		return Abstain
	}

	callNow, putNow := totalOI(snap)
	callPrev, putPrev := totalOI(prior)
	if callPrev == 0 || putPrev == 0 {
		return Abstain
	}

	callGrowth := float64(callNow-callPrev) / float64(callPrev)
	putGrowth := float64(putNow-putPrev) / float64(putPrev)
	diff := callGrowth - putGrowth

	switch {
	case diff > r.Threshold:
		return Vote{
			Direction: models.Bullish,
			Weight:    r.Weight,
			Reason:    fmt.Sprintf("call OI up %.1f%% vs put OI %.1f%%, bullish buildup", callGrowth*100, putGrowth*100),
		}
	case -diff > r.Threshold:
		return Vote{
			Direction: models.Bearish,
			Weight:    r.Weight,
			Reason:    fmt.Sprintf("put OI up %.1f%% vs call OI %.1f%%, bearish buildup", putGrowth*100, callGrowth*100),
		}
	}

	return Abstain
}

func totalOI(s *models.MarketSnapshot) (calls, puts int64) {
	for _, leg := range s.Legs {
		switch leg.Type {
		case models.OptionCall:
			calls += leg.OI
		case models.OptionPut:
			puts += leg.OI
		}
	}
	return calls, puts
}
