package rules

import (
	"fmt"
	"math"

	"options-insight/internal/models"
)

// MaxPainGravityRule votes on the pull of spot toward the max-pain strike:
// spot above max pain votes bearish, spot below votes bullish. The vote
// weight scales with the gap — barely off max pain is a mild pull, a spot
// that has run a full percent away is a strong one.
type MaxPainGravityRule struct {
	BaseWeight float64
	// GapScale is the gap, as a fraction of spot, at which the vote
	// reaches full base weight.
	GapScale float64
	// MinGap is the gap fraction below which the rule abstains.
	MinGap float64
}

// NewMaxPainGravityRule returns the rule with full weight at a 1% gap.
func NewMaxPainGravityRule() *MaxPainGravityRule {
	return &MaxPainGravityRule{
		BaseWeight: 2.0,
		GapScale:   0.01,
		MinGap:     0.001,
	}
}

func (r *MaxPainGravityRule) Name() string { return "max_pain_gravity" }

func (r *MaxPainGravityRule) Evaluate(snap *models.MarketSnapshot, a *models.ChainAnalytics, prior *models.MarketSnapshot) Vote {
	if a.MaxPainStrike <= 0 || snap.SpotPrice <= 0 {
		return Abstain
	}

	gap := snap.SpotPrice - a.MaxPainStrike
	gapFrac := math.Abs(gap) / snap.SpotPrice
	if gapFrac < r.MinGap {
		return Abstain
	}

	weight := r.BaseWeight * math.Min(1, gapFrac/r.GapScale)

	if gap > 0 {
		return Vote{
			Direction: models.Bearish,
			Weight:    weight,
			Reason:    fmt.Sprintf("spot %.2f above max pain %.2f, downward pull", snap.SpotPrice, a.MaxPainStrike),
		}
	}
	return Vote{
		Direction: models.Bullish,
		Weight:    weight,
		Reason:    fmt.Sprintf("spot %.2f below max pain %.2f, upward pull", snap.SpotPrice, a.MaxPainStrike),
	}
}
