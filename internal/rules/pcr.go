package rules

import (
	"fmt"

	"options-insight/internal/models"
)

// PCRExtremeRule votes on extreme put-call ratios. A high PCR means put
// writers are crowding in below the market (contrarian bullish); a low PCR
// the reverse. An undefined PCR is neutral evidence and the rule abstains.
type PCRExtremeRule struct {
	BullishAbove float64
	BearishBelow float64
	Weight       float64
}

// NewPCRExtremeRule returns the rule with the conventional 1.3/0.7 bands.
func NewPCRExtremeRule() *PCRExtremeRule {
	return &PCRExtremeRule{
		BullishAbove: 1.3,
		BearishBelow: 0.7,
		Weight:       1.0,
	}
}

func (r *PCRExtremeRule) Name() string { return "pcr_extreme" }

func (r *PCRExtremeRule) Evaluate(snap *models.MarketSnapshot, a *models.ChainAnalytics, prior *models.MarketSnapshot) Vote {
	if !a.PCRDefined {
		return Abstain
	}

	switch {
	case a.PCR > r.BullishAbove:
		return Vote{
			Direction: models.Bullish,
			Weight:    r.Weight,
			Reason:    fmt.Sprintf("PCR %.2f above %.2f, heavy put writing", a.PCR, r.BullishAbove),
		}
	case a.PCR < r.BearishBelow:
		return Vote{
			Direction: models.Bearish,
			Weight:    r.Weight,
			Reason:    fmt.Sprintf("PCR %.2f below %.2f, heavy call writing", a.PCR, r.BearishBelow),
		}
	}

	return Abstain
}
