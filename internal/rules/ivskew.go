package rules

import (
	"fmt"

	"options-insight/internal/models"
)

// IVSkewRule votes on implied-volatility skew between puts and calls.
// Put IV running well above call IV signals hedging demand (fear); the
// reverse signals call chasing. Abstains when IV data is missing.
type IVSkewRule struct {
	Weight float64
	// Ratio of average put IV to average call IV beyond which a vote is cast.
	SkewThreshold float64
}

// NewIVSkewRule returns the rule with a 15% skew threshold.
func NewIVSkewRule() *IVSkewRule {
	return &IVSkewRule{
		Weight:        0.5,
		SkewThreshold: 1.15,
	}
}

func (r *IVSkewRule) Name() string { return "iv_skew" }

func (r *IVSkewRule) Evaluate(snap *models.MarketSnapshot, a *models.ChainAnalytics, prior *models.MarketSnapshot) Vote {
	callIV := avgIV(snap.CallLegs())
	putIV := avgIV(snap.PutLegs())
	if callIV == 0 || putIV == 0 {
		return Abstain
	}

	ratio := putIV / callIV
	switch {
	case ratio > r.SkewThreshold:
		return Vote{
			Direction: models.Bearish,
			Weight:    r.Weight,
			Reason:    fmt.Sprintf("put IV %.1f rich vs call IV %.1f, hedging demand", putIV, callIV),
		}
	case ratio < 1/r.SkewThreshold:
		return Vote{
			Direction: models.Bullish,
			Weight:    r.Weight,
			Reason:    fmt.Sprintf("call IV %.1f rich vs put IV %.1f, upside chase", callIV, putIV),
		}
	}

	return Abstain
}

// avgIV averages the known IVs; legs without IV are skipped.
func avgIV(legs []models.OptionLeg) float64 {
	var sum float64
	var n int
	for _, leg := range legs {
		if leg.IV > 0 {
			sum += leg.IV
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
